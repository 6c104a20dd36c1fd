package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lomoval/otus-golang/event_planner/internal/metrics"
	"github.com/lomoval/otus-golang/event_planner/internal/storage"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
)

const (
	DefaultCategory = "General"

	SortByDate     = "date"
	SortByCategory = "category"
	SortByReminder = "reminder"
)

var dateTimeLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

type Scheduler interface {
	Schedule(e storage.Event) bool
}

// TokenResolver maps a bearer token back to its user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (storage.User, error)
}

type App struct {
	Storage   storage.Storage
	scheduler Scheduler
	clock     clockwork.Clock
	metrics   *metrics.Metrics
}

func New(storage storage.Storage, scheduler Scheduler, clock clockwork.Clock, m *metrics.Metrics) *App {
	return &App{Storage: storage, scheduler: scheduler, clock: clock, metrics: m}
}

type EventInput struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Date                  string   `json:"date"`
	Time                  string   `json:"time"`
	Category              string   `json:"category"`
	ReminderMinutesBefore *float64 `json:"reminderMinutesBefore"`
}

func (a *App) Register(ctx context.Context, username, password string) (storage.User, error) {
	if username == "" || password == "" {
		return storage.User{}, fmt.Errorf("username and password required: %w", ErrValidation)
	}
	u := storage.User{Username: username, Password: password}
	if err := a.Storage.AddUser(ctx, &u); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return storage.User{}, fmt.Errorf("user %q already exists: %w", username, ErrConflict)
		}
		return storage.User{}, err
	}
	a.metrics.UsersRegistered.Inc()
	log.Debugf("user %q registered with id %q", u.Username, u.ID)
	return u, nil
}

// Login returns the user matching the credentials. Its ID is used as the bearer token.
func (a *App) Login(ctx context.Context, username, password string) (storage.User, error) {
	u, err := a.Storage.FindUserByCredentials(ctx, username, func(u storage.User) bool {
		return credentialsMatch(u, password)
	})
	if err != nil {
		a.metrics.IncLogin(metrics.StatusFailed)
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.User{}, fmt.Errorf("invalid credentials for %q: %w", username, ErrAuth)
		}
		return storage.User{}, err
	}
	a.metrics.IncLogin(metrics.StatusSuccess)
	return u, nil
}

// credentialsMatch is the single place passwords are compared; plain text for now.
func credentialsMatch(u storage.User, password string) bool {
	return u.Password == password
}

func (a *App) ResolveToken(ctx context.Context, token string) (storage.User, error) {
	if token == "" {
		return storage.User{}, fmt.Errorf("token is not provided: %w", ErrAuth)
	}
	u, err := a.Storage.FindUserByID(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.User{}, fmt.Errorf("invalid token: %w", ErrAuth)
		}
		return storage.User{}, err
	}
	return u, nil
}

func (a *App) CreateEvent(ctx context.Context, owner storage.User, in EventInput) (storage.Event, error) {
	if in.Name == "" || in.Date == "" || in.Time == "" {
		return storage.Event{}, fmt.Errorf("name, date and time are required: %w", ErrValidation)
	}
	date, err := parseDateTime(in.Date, in.Time)
	if err != nil {
		return storage.Event{}, err
	}

	e := storage.Event{
		UserID:      owner.ID,
		Name:        in.Name,
		Description: in.Description,
		Date:        date,
		Category:    in.Category,
	}
	if e.Category == "" {
		e.Category = DefaultCategory
	}
	// Zero and negative lead times mean no reminder.
	if in.ReminderMinutesBefore != nil && *in.ReminderMinutesBefore > 0 {
		minutes := *in.ReminderMinutesBefore
		e.ReminderMinutesBefore = &minutes
		e.ReminderSet = true
	}

	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return storage.Event{}, fmt.Errorf("failed to store event: %w", err)
	}
	a.metrics.EventsCreated.Inc()
	a.scheduler.Schedule(e)
	return e, nil
}

func parseDateTime(date, clock string) (time.Time, error) {
	value := date + "T" + clock
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date or time %q: %w", value, ErrValidation)
}

// ListEvents returns owner's events that have not started yet, ordered by sortBy.
// Unknown sortBy keeps insertion order.
func (a *App) ListEvents(ctx context.Context, owner storage.User, sortBy string) ([]storage.Event, error) {
	all, err := a.Storage.ListEventsByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	now := a.clock.Now()
	events := make([]storage.Event, 0, len(all))
	for _, e := range all {
		if !e.Date.Before(now) {
			events = append(events, e)
		}
	}

	switch sortBy {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Date.Before(events[j].Date)
		})
	case SortByCategory:
		c := collate.New(language.Und)
		sort.SliceStable(events, func(i, j int) bool {
			return c.CompareString(events[i].Category, events[j].Category) < 0
		})
	case SortByReminder:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].ReminderSet && !events[j].ReminderSet
		})
	}
	return events, nil
}
