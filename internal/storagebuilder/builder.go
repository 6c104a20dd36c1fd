package storagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/lomoval/otus-golang/event_planner/internal/storage"
	memorystorage "github.com/lomoval/otus-golang/event_planner/internal/storage/memory"
)

const StorageTypeMemory = "memory"

type Config struct {
	StorageType string
}

func New(config Config) (storage.Storage, error) {
	var s storage.Storage
	switch config.StorageType {
	case StorageTypeMemory:
		s = memorystorage.New()
	default:
		return nil, fmt.Errorf("unknown storage type %q", config.StorageType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s storage: %w", config.StorageType, err)
	}
	return s, nil
}
