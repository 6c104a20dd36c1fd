package memorystorage

import (
	"context"
	"fmt"
	"sync"

	"github.com/lomoval/otus-golang/event_planner/internal/storage"
	"github.com/lomoval/otus-golang/event_planner/internal/util"
)

type Storage struct {
	mu         sync.RWMutex
	users      map[string]storage.User
	byUsername map[string]string
	events     []storage.Event
	generateID func() string
}

func New() *Storage {
	return &Storage{
		users:      make(map[string]storage.User),
		byUsername: make(map[string]string),
		generateID: util.GenerateID,
	}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddUser(_ context.Context, u *storage.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[u.Username]; ok {
		return fmt.Errorf("duplicate username %q: %w", u.Username, storage.ErrUserExists)
	}
	if u.ID == "" {
		u.ID = s.generateID()
	}
	s.users[u.ID] = *u
	s.byUsername[u.Username] = u.ID
	return nil
}

func (s *Storage) FindUserByCredentials(
	_ context.Context,
	username string,
	match storage.CredentialsMatcher,
) (storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return storage.User{}, storage.ErrUserNotFound
	}
	u := s.users[id]
	if !match(u) {
		return storage.User{}, storage.ErrUserNotFound
	}
	return u, nil
}

func (s *Storage) FindUserByID(_ context.Context, id string) (storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return storage.User{}, fmt.Errorf("failed to find user with id %q: %w", id, storage.ErrUserNotFound)
	}
	return u, nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.generateID()
	}
	s.events = append(s.events, *e)
	return nil
}

// ListEventsByOwner returns owner's events in insertion order.
func (s *Storage) ListEventsByOwner(_ context.Context, userID string) ([]storage.Event, error) {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.UserID == userID {
			events = append(events, e)
		}
	}
	return events, nil
}
