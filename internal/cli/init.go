// Package cli holds the start-up and shutdown steps shared by the binaries
// under cmd/.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/config"
	"expensetracker/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is ignored.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SetupLogger builds the process logger at level and installs it as the
// slog default.
func SetupLogger(w io.Writer, level string, component string) *log.Logger {
	lvl, err := config.ParseLogLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: component, Output: w})
	if err != nil {
		logger.Warn("Falling back to info log level", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads .env, parses the environment and validates
// the result.
func LoadAndValidateConfig() (*config.Config, error) {
	if err := LoadEnvFile(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Run starts every task in its own goroutine and waits for all of them.
// The first task to fail cancels the context passed to the others.
// A context.Canceled result is treated as a clean stop.
func Run(ctx context.Context, tasks ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(gctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
