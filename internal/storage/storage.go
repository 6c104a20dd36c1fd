package storage

import (
	"context"
	"errors"
)

var (
	ErrUserExists   = errors.New("user with same username exists")
	ErrUserNotFound = errors.New("user not found")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	AddUser(ctx context.Context, u *User) error
	FindUserByCredentials(ctx context.Context, username string, match CredentialsMatcher) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
	AddEvent(ctx context.Context, e *Event) error
	ListEventsByOwner(ctx context.Context, userID string) ([]Event, error)
}

// CredentialsMatcher reports whether the presented credentials belong to u.
type CredentialsMatcher func(u User) bool
