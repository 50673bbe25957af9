package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when no user matches
var ErrUserNotFound = errors.New("user not found")

// RelationalRunner runs fn with a connection from the active relational pool
type RelationalRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error
}

// User represents a user in the system
type User struct {
	UserID          string
	Email           string
	Username        string
	FullName        string
	HashedPassword  string
	Bio             string
	ProfileImageURL string
	IsActive        bool
	IsVerified      bool
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// UserStore persists users through the relational failover manager
type UserStore struct {
	db RelationalRunner
}

func NewUserStore(db RelationalRunner) *UserStore {
	return &UserStore{db: db}
}

// CreateTables creates the necessary database tables
func (s *UserStore) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			user_id VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			username VARCHAR(50) NOT NULL UNIQUE,
			full_name VARCHAR(100),
			hashed_password VARCHAR(255) NOT NULL,
			bio TEXT,
			profile_image_url VARCHAR(500),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	}

	return s.db.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		for _, query := range queries {
			if _, err := conn.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}
		return nil
	})
}

// CreateUser inserts user, assigning a UserID and CreatedAt when unset
func (s *UserStore) CreateUser(ctx context.Context, user *User) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (user_id, email, username, full_name, hashed_password, bio,
		profile_image_url, is_active, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	return s.db.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, query,
			user.UserID,
			user.Email,
			user.Username,
			nullString(user.FullName),
			user.HashedPassword,
			nullString(user.Bio),
			nullString(user.ProfileImageURL),
			user.IsActive,
			user.IsVerified,
			user.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
}

// GetUser retrieves a user by ID
func (s *UserStore) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `SELECT user_id, email, username, full_name, hashed_password, bio,
		profile_image_url, is_active, is_verified, created_at, updated_at
		FROM users WHERE user_id = $1`

	var user User
	err := s.db.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		var fullName, bio, imageURL sql.NullString
		var updatedAt sql.NullTime

		err := conn.QueryRowContext(ctx, query, userID).Scan(
			&user.UserID,
			&user.Email,
			&user.Username,
			&fullName,
			&user.HashedPassword,
			&bio,
			&imageURL,
			&user.IsActive,
			&user.IsVerified,
			&user.CreatedAt,
			&updatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("query user: %w", err)
		}

		user.FullName = fullName.String
		user.Bio = bio.String
		user.ProfileImageURL = imageURL.String
		if updatedAt.Valid {
			t := updatedAt.Time
			user.UpdatedAt = &t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
