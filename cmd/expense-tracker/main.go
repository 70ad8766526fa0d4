package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/backend"
	"expensetracker/internal/cache"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
)

const sessionSweepInterval = 5 * time.Minute

func main() {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, log.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Slog()).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	sessions := session.NewManager(session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Logger:      logger.WithComponent(log.ComponentSession).Slog(),
	})
	sweeper := cache.NewManager(logger.WithComponent(log.ComponentSession).Slog())
	sweeper.Register(sessions.Cleaner())

	ledger := services.NewLedgerService(sessions, be.Publisher,
		services.WithLogger(logger.WithComponent(log.ComponentLedger).Slog()))

	ready := make(map[string]apphttp.Checker, len(be.Ready))
	for name, check := range be.Ready {
		ready[name] = check
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Currency:           apphttp.CurrencyFromConfig(cfg),
		DailyTotals:        cfg.AnalyticsDailyTotals,
		SecureCookies:      cfg.SecureCookies,
		SessionTTL:         cfg.SessionTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Auth:     auth.NewService(be.Users),
		Ledger:   ledger,
		Sessions: sessions,
		Logger:   logger,
		Ready:    ready,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting expense tracker",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Publisher != nil,
		"daily_totals", cfg.AnalyticsDailyTotals)

	err = cli.Run(ctx,
		func(context.Context) error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		func(ctx context.Context) error {
			<-ctx.Done()
			logger.Info("Shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
		func(ctx context.Context) error {
			sweeper.StartCleanup(sessionSweepInterval)
			<-ctx.Done()
			sweeper.Stop()
			sweeper.Wait()
			return nil
		},
	)
	if err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
