package storage

import (
	"time"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

type Event struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	Date                  time.Time `json:"date"`
	Category              string    `json:"category"`
	ReminderMinutesBefore *float64  `json:"reminderMinutesBefore"`
	ReminderSet           bool      `json:"reminderSet"`
}
