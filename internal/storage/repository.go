// Package storage persists user accounts in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"expensetracker/internal/auth"
)

// UserRepository implements auth.UserStore on SQLite.
type UserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ auth.UserStore = (*UserRepository)(nil)

// NewUserRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewUserRepository(dbPath string, logger *slog.Logger) (*UserRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &UserRepository{db: db, logger: logger}, nil
}

func (r *UserRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *UserRepository) CreateUser(ctx context.Context, u auth.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	r.logger.InfoContext(ctx, "User saved to SQLite", "user_id", u.ID, "username", u.Username)
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, username string) (*auth.User, error) {
	var (
		id, hash, created string
		u                 auth.User
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&id, &u.Username, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", id, err)
	}
	u.PasswordHash = hash
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return &u, nil
}

// CountUsers returns the number of registered accounts.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
