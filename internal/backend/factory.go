package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/auth"
	"expensetracker/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
	// dial opens the broker connection; replaced in tests.
	dial func(url, exchange, queue string, logger *slog.Logger) (*amqp.Client, error)
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, dial: amqp.NewClient}
}

// Create builds the account store for cfg.Type and, when an AMQP URL is
// configured, the event publisher. A broker that cannot be reached at
// startup disables events instead of failing.
func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Ready: make(map[string]func(context.Context) error)}
	var closers []func() error

	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewUserRepository(cfg.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Users = repo
		res.Ready["sqlite"] = repo.Ping
		closers = append(closers, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case Memory:
		res.Users = auth.NewMemoryStore()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	if cfg.AMQPURL != "" {
		client, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			res.Publisher = client
			res.Ready["amqp"] = func(context.Context) error { return client.Ping() }
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	return res, nil
}
