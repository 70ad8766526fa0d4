package session

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/cache"
)

const (
	// CookieName is the cookie carrying the session token.
	CookieName = "session_token"

	DefaultTTL         = 12 * time.Hour
	DefaultMaxSessions = 1000
)

var ErrInvalidSession = errors.New("invalid session")

// Manager isolates sessions by token. Idle sessions expire after the TTL and
// the least recently used ones are dropped once MaxSessions is exceeded;
// either way their State is reset.
type Manager struct {
	store  *cache.LRUCache[*State]
	now    func() time.Time
	logger *slog.Logger
}

// Config holds session manager configuration
type Config struct {
	TTL         time.Duration
	MaxSessions int
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewManager creates a session manager. Zero fields fall back to defaults.
func NewManager(cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	m := &Manager{now: cfg.Now, logger: cfg.Logger}
	m.store = cache.NewLRUCache[*State](cfg.MaxSessions, cfg.TTL,
		cache.WithClock[*State](cfg.Now),
		cache.WithEvictCallback[*State](m.onEvict),
	)
	return m
}

// Create starts a fresh session for username and returns its token.
func (m *Manager) Create(username string) (string, *State) {
	token := uuid.NewString()
	st := New(username, m.now())
	m.store.Set(token, st)
	return token, st
}

// Get returns the live session for token.
func (m *Manager) Get(token string) (*State, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrInvalidSession
	}
	st, ok := m.store.Get(token)
	if !ok {
		return nil, ErrInvalidSession
	}
	return st, nil
}

// Destroy ends the session for token, discarding its state.
func (m *Manager) Destroy(token string) bool {
	return m.store.Delete(token)
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	return m.store.Size()
}

// Cleaner exposes the underlying store for periodic expiry sweeps.
func (m *Manager) Cleaner() cache.Cleaner {
	return m.store
}

func (m *Manager) onEvict(_ string, st *State, reason cache.EvictReason) {
	user := st.Username()
	st.Reset()
	if reason != cache.Deleted {
		m.logger.Info("Session discarded", "username", user, "reason", reason.String())
	}
}
