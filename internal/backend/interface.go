// Package backend builds the account store and the event publisher selected
// by configuration.
package backend

import (
	"context"

	"expensetracker/internal/auth"
	"expensetracker/internal/services"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result holds everything a backend provides to the server.
type Result struct {
	Users auth.UserStore
	// Publisher is nil when events are disabled or the broker is unreachable.
	Publisher services.EventPublisher
	// Ready checks keyed by dependency name, for /readyz.
	Ready   map[string]func(context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds the settings a backend needs.
type Config struct {
	Type Type

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type names an account store implementation.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is a known backend.
func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}
