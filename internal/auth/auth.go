// Package auth manages user accounts for the dashboard. Passwords are stored
// as bcrypt hashes and never compared in plain text.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// User is a stored credential record.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists credential records.
type UserStore interface {
	// CreateUser stores u. It returns ErrUsernameTaken if the username exists.
	CreateUser(ctx context.Context, u User) error
	// GetUser returns the record for username, or nil if there is none.
	GetUser(ctx context.Context, username string) (*User, error)
}

// Service implements signup and login on top of a UserStore.
type Service struct {
	store UserStore
	cost  int
	now   func() time.Time
}

// NewService creates an auth service using bcrypt.DefaultCost.
func NewService(store UserStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithCost returns a copy of s hashing with the given bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	c := *s
	c.cost = cost
	return &c
}

// Signup registers a new account. An existing username yields
// ErrUsernameTaken and no record is written.
func (s *Service) Signup(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	existing, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// Login verifies credentials and returns the matching user.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
