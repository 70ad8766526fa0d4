package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/session"
)

// EventPublisher delivers audit events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, e *amqp.LedgerEvent) error
}

// LedgerService applies user actions to session state and announces them.
// Events are best effort: a failed publish is logged and never fails the
// action, and a nil publisher disables events.
type LedgerService struct {
	sessions  *session.Manager
	publisher EventPublisher
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*LedgerService)

// WithClock overrides the clock used for budget reference dates.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(sessions *session.Manager, publisher EventPublisher, opts ...Option) *LedgerService {
	s := &LedgerService{
		sessions:  sessions,
		publisher: publisher,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession creates a fresh session for an authenticated user.
func (s *LedgerService) StartSession(ctx context.Context, username string) (string, *session.State) {
	token, st := s.sessions.Create(username)
	s.logger.InfoContext(ctx, "Session started", "username", username, "active_sessions", s.sessions.Len())
	s.publish(ctx, amqp.SessionStarted, username, nil)
	return token, st
}

// EndSession discards the session for token. It reports whether one existed.
func (s *LedgerService) EndSession(ctx context.Context, token string) bool {
	st, err := s.sessions.Get(token)
	if err != nil {
		return false
	}
	username := st.Username()
	if !s.sessions.Destroy(token) {
		return false
	}
	s.logger.InfoContext(ctx, "Session ended", "username", username)
	s.publish(ctx, amqp.SessionEnded, username, nil)
	return true
}

// AddExpense validates e and appends it to the session ledger. The category
// is not checked against the registry.
func (s *LedgerService) AddExpense(ctx context.Context, st *session.State, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	st.AddExpense(e)

	s.logger.InfoContext(ctx, "Expense added",
		"username", st.Username(),
		"date", e.Date.String(),
		"category", e.Category,
		"amount", e.Amount.String())
	s.publish(ctx, amqp.ExpenseAdded, st.Username(), map[string]string{
		"date":        e.Date.String(),
		"category":    e.Category,
		"description": e.Description,
		"amount":      e.Amount.String(),
	})
	return nil
}

// AddCategory appends name to the session registry and returns the
// existing names it resembles. Duplicates and empty names are accepted.
func (s *LedgerService) AddCategory(ctx context.Context, st *session.State, name string) []string {
	similar := st.AddCategory(name)
	if len(similar) > 0 {
		s.logger.WarnContext(ctx, "Category resembles existing ones", "name", name, "similar", similar)
	} else {
		s.logger.InfoContext(ctx, "Category added", "name", name)
	}
	s.publish(ctx, amqp.CategoryAdded, st.Username(), map[string]string{"name": name})
	return similar
}

// SaveBudget stores monthly and its daily limit for the current month,
// replacing any previous budget.
func (s *LedgerService) SaveBudget(ctx context.Context, st *session.State, monthly core.Money) (core.Budget, error) {
	if err := monthly.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	b := core.NewBudget(monthly, s.now())
	st.SaveBudget(b)

	s.logger.InfoContext(ctx, "Budget saved",
		"username", st.Username(),
		"monthly_limit", monthly.String(),
		"daily_limit", b.DailyLimit.StringFixed(2))
	s.publish(ctx, amqp.BudgetSaved, st.Username(), map[string]string{
		"monthly_limit": monthly.String(),
		"daily_limit":   b.DailyLimit.StringFixed(2),
	})
	return b, nil
}

// PreviewDailyLimit computes the daily limit for monthly without storing it.
func (s *LedgerService) PreviewDailyLimit(monthly core.Money) decimal.Decimal {
	return core.DailyLimit(monthly, s.now())
}

func (s *LedgerService) publish(ctx context.Context, t amqp.EventType, username string, attrs map[string]string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewLedgerEvent(t, username, attrs)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event", "type", t, "error", err)
	}
}
