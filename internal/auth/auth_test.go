package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store).WithCost(bcrypt.MinCost), store
}

func TestSignupAndLogin(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	u, err := svc.Signup(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if u.Username != "alice" || u.ID.String() == "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash == "s3cret" || !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Fatalf("password must be stored as a bcrypt hash, got %q", u.PasswordHash)
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 stored user, got %d", store.Count())
	}

	got, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("login returned another user")
	}
}

func TestSignupRejectsDuplicateUsername(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "alice", "one"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := svc.Signup(ctx, "alice", "two"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("duplicate signup must not create a record")
	}
	// The original password still works.
	if _, err := svc.Login(ctx, "alice", "one"); err != nil {
		t.Fatalf("Login with original password: %v", err)
	}
}

func TestSignupRequiresCredentials(t *testing.T) {
	svc, store := newTestService()
	for _, tc := range [][2]string{{"", "pw"}, {"   ", "pw"}, {"bob", ""}} {
		if _, err := svc.Signup(context.Background(), tc[0], tc[1]); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("Signup(%q, %q) err = %v", tc[0], tc[1], err)
		}
	}
	if store.Count() != 0 {
		t.Fatalf("no record should be created")
	}
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "alice", strings.Repeat("x", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("no record should be created")
	}
	if _, err := svc.Signup(ctx, "alice", strings.Repeat("x", MaxPasswordBytes)); err != nil {
		t.Fatalf("a %d byte password must be accepted: %v", MaxPasswordBytes, err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Signup(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	tests := []struct {
		name, user, pass string
	}{
		{"unknown user", "bob", "s3cret"},
		{"wrong password", "alice", "nope"},
		{"empty password", "alice", ""},
		{"case differs", "Alice", "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.user, tt.pass); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

type failingStore struct{}

func (failingStore) CreateUser(context.Context, User) error { return errors.New("disk full") }
func (failingStore) GetUser(context.Context, string) (*User, error) {
	return nil, errors.New("connection refused")
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	svc := NewService(failingStore{}).WithCost(bcrypt.MinCost)
	_, err := svc.Login(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("store failure must not look like bad credentials: %v", err)
	}
	if !strings.Contains(err.Error(), "lookup user") {
		t.Fatalf("error not wrapped: %v", err)
	}
}
