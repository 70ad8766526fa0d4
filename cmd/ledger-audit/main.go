package main

import (
	"context"
	"flag"
	"os"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/log"
	"expensetracker/internal/worker"
)

func main() {
	trailPath := flag.String("trail", "", "append events as JSON lines to this file")
	summaryEvery := flag.Duration("summary", 10*time.Minute, "interval between summary log lines")
	flag.Parse()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, log.ComponentAudit)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required for the audit consumer")
		os.Exit(1)
	}

	var trail *os.File
	if *trailPath != "" {
		trail, err = os.OpenFile(*trailPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("Failed to open audit trail", log.FieldError, err, "path", *trailPath)
			os.Exit(1)
		}
		defer trail.Close()
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		logger.WithComponent(log.ComponentAMQP).Slog())
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	// A nil *os.File must not reach the io.Writer parameter.
	var w *worker.AuditWorker
	if trail != nil {
		w = worker.NewAuditWorker(trail, logger.Slog())
	} else {
		w = worker.NewAuditWorker(nil, logger.Slog())
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	logger.Info("Starting ledger audit consumer", "queue", cfg.AMQPQueue, "trail", *trailPath)
	err = cli.Run(ctx,
		func(ctx context.Context) error {
			return client.Consume(ctx, w.HandleEvent)
		},
		func(ctx context.Context) error {
			ticker := time.NewTicker(*summaryEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					w.LogSummary(context.Background())
					return nil
				case <-ticker.C:
					w.LogSummary(ctx)
				}
			}
		},
	)
	if err != nil {
		logger.Error("Audit consumer stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Audit consumer stopped gracefully")
}
