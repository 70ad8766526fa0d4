// Package worker consumes ledger events published by the dashboard.
package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"

	"expensetracker/internal/amqp"
)

// Stats is a snapshot of the events seen by an AuditWorker.
type Stats struct {
	Total  int
	ByType map[amqp.EventType]int
	ByUser map[string]int
}

// AuditWorker logs every ledger event and keeps running counts. When a trail
// writer is set, each event is also appended to it as one JSON line.
type AuditWorker struct {
	mu     sync.Mutex
	trail  io.Writer
	logger *slog.Logger
	total  int
	byType map[amqp.EventType]int
	byUser map[string]int
}

func NewAuditWorker(trail io.Writer, logger *slog.Logger) *AuditWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditWorker{
		trail:  trail,
		logger: logger,
		byType: make(map[amqp.EventType]int),
		byUser: make(map[string]int),
	}
}

// HandleEvent records e. A trail write failure is returned so the delivery
// is requeued once.
func (w *AuditWorker) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.trail != nil {
		line, err := e.ToJSON()
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if _, err := w.trail.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write audit trail: %w", err)
		}
	}

	w.total++
	w.byType[e.Type]++
	w.byUser[e.Username]++

	args := []any{"type", e.Type, "username", e.Username, "timestamp", e.Timestamp}
	for k, v := range e.Attributes {
		args = append(args, k, v)
	}
	w.logger.InfoContext(ctx, "Ledger event", args...)
	return nil
}

// Stats returns a copy of the running counts.
func (w *AuditWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Total: w.total, ByType: maps.Clone(w.byType), ByUser: maps.Clone(w.byUser)}
}

// LogSummary writes the running counts at info level.
func (w *AuditWorker) LogSummary(ctx context.Context) {
	s := w.Stats()
	w.logger.InfoContext(ctx, "Audit summary",
		"total", s.Total,
		"expenses_added", s.ByType[amqp.ExpenseAdded],
		"categories_added", s.ByType[amqp.CategoryAdded],
		"budgets_saved", s.ByType[amqp.BudgetSaved],
		"sessions_started", s.ByType[amqp.SessionStarted],
		"users", len(s.ByUser))
}
