// Package session holds the per-user state of an interactive session: the
// expense ledger, the category registry and the saved budget. Nothing in a
// State outlives the session; logging out or expiring discards it.
package session

import (
	"sync"
	"time"

	"expensetracker/internal/core"
)

// State is the container every handler receives for the current session.
// Its methods serialize access, so at most one interaction mutates or reads
// the session at a time.
type State struct {
	mu         sync.Mutex
	username   string
	createdAt  time.Time
	ledger     *core.Ledger
	categories *core.Registry
	budget     *core.Budget
}

// New returns a State with defaults applied: empty ledger, default
// categories and no budget.
func New(username string, now time.Time) *State {
	return &State{
		username:   username,
		createdAt:  now,
		ledger:     core.NewLedger(),
		categories: core.NewRegistry(),
	}
}

// Username returns the authenticated user owning the session.
func (s *State) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// CreatedAt returns when the session started.
func (s *State) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

// AddExpense appends e to the ledger.
func (s *State) AddExpense(e core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Add(e)
}

// Expenses returns a snapshot of the ledger in insertion order.
func (s *State) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.All()
}

// HasExpenses reports whether at least one expense was recorded.
func (s *State) HasExpenses() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ledger.IsEmpty()
}

// AddCategory appends name to the registry and returns the names it
// resembled before the addition.
func (s *State) AddCategory(name string) (similar []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	similar = s.categories.Suggest(name)
	s.categories.Add(name)
	return similar
}

// Categories returns the registry in insertion order.
func (s *State) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories.List()
}

// SaveBudget stores b, replacing any previous budget.
func (s *State) SaveBudget(b core.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = &b
}

// Budget returns the saved budget, if any.
func (s *State) Budget() (core.Budget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget == nil {
		return core.Budget{}, false
	}
	return *s.budget, true
}

// Reset discards all session data. The State is left empty, not defaulted,
// so a handler still holding it after logout cannot see previous data.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = ""
	s.ledger = core.NewLedger()
	s.categories = &core.Registry{}
	s.budget = nil
}
