package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/utils"
	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("user not found")

const bcryptCost = 12

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HashPassword hashes the user's password using bcrypt.
func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword compares a given password with the user's hashed password.
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// UserStore keeps dashboard credentials in the users table.
type UserStore struct {
	db *sql.DB
	// dummyHash is compared against when the username is unknown.
	dummyHash []byte
}

func NewUserStore(db *sql.DB) *UserStore {
	h, _ := bcrypt.GenerateFromPassword([]byte("unknown-user-placeholder"), bcryptCost)
	return &UserStore{db: db, dummyHash: h}
}

// Verify reports whether username/secret match a stored user.
func (s *UserStore) Verify(ctx context.Context, username, secret string) bool {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logger.FromContext(ctx).Error("Credential lookup failed", "username", username, "error", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(secret))
		return false
	}
	return user.CheckPassword(secret) == nil
}

// CreateOrUpdateUser stores a user, replacing the password of an existing one.
func (s *UserStore) CreateOrUpdateUser(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	u := &User{Username: username}
	if err := u.HashPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `
	INSERT INTO users (username, password_hash, created_at, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(username) DO UPDATE SET
		password_hash = excluded.password_hash,
		updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, query, u.Username, u.PasswordHash); err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", username, err)
	}
	return s.GetUserByUsername(ctx, username)
}

// GetUserByUsername retrieves a user by their username.
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
	SELECT id, username, password_hash, created_at, updated_at
	FROM users
	WHERE username = ?`

	var user User
	var createdAt, updatedAt sql.NullString
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.CreatedAt, _ = utils.ParseDate(createdAt.String)
	user.UpdatedAt, _ = utils.ParseDate(updatedAt.String)
	return &user, nil
}
