// Package backend builds the persistence stack selected by configuration.
package backend

import (
	"context"

	"budgetai/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is a ready repository and what it takes to shut it down.
type BackendResult struct {
	Repository store.Repository
	// Ping reports backend health for readiness probes. Nil means always ready.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional snapshot publishing, sqlite only
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
