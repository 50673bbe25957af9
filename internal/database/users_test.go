package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InstaIntelli/insta/internal/failover"
)

var userColumns = []string{
	"user_id", "email", "username", "full_name", "hashed_password", "bio",
	"profile_image_url", "is_active", "is_verified", "created_at", "updated_at",
}

func newMockUserStore(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mgr := failover.New[*sql.Conn](KindPostgres, NewPostgresPoolFromDB(db, failover.RolePrimary), nil,
		failover.WithCheckOnAccess(false))
	t.Cleanup(func() { _ = mgr.Close() })

	return NewUserStore(mgr), mock
}

func TestUserStore_CreateTables(t *testing.T) {
	store, mock := newMockUserStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_users_email").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_users_username").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.CreateTables(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_CreateUser(t *testing.T) {
	store, mock := newMockUserStore(t)
	created := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("u-1", "alice@example.com", "alice", "Alice A", "hash", nil, nil, true, false, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.CreateUser(context.Background(), &User{
		UserID:         "u-1",
		Email:          "alice@example.com",
		Username:       "alice",
		FullName:       "Alice A",
		HashedPassword: "hash",
		IsActive:       true,
		CreatedAt:      created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_CreateUserAssignsID(t *testing.T) {
	store, mock := newMockUserStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &User{Email: "bob@example.com", Username: "bob", HashedPassword: "hash"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	assert.Len(t, user.UserID, 36)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserStore_CreateUserError(t *testing.T) {
	store, mock := newMockUserStore(t)
	dupErr := errors.New(`duplicate key value violates unique constraint "users_email_key"`)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(dupErr)

	err := store.CreateUser(context.Background(), &User{UserID: "u-1", Email: "a@b.c", Username: "a", HashedPassword: "h"})
	assert.ErrorIs(t, err, dupErr)
}

func TestUserStore_GetUser(t *testing.T) {
	store, mock := newMockUserStore(t)
	created := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE user_id = $1")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice@example.com", "alice", nil, "hash", "hello", nil, true, true, created, nil))

	user, err := store.GetUser(context.Background(), "u-1")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "", user.FullName)
	assert.Equal(t, "hello", user.Bio)
	assert.True(t, user.IsVerified)
	assert.Equal(t, created, user.CreatedAt)
	assert.Nil(t, user.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_GetUserNotFound(t *testing.T) {
	store, mock := newMockUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE user_id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := store.GetUser(context.Background(), "missing")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserStore_UnusableBackend(t *testing.T) {
	store := NewUserStore(failover.New[*sql.Conn](KindPostgres, nil, nil))

	_, err := store.GetUser(context.Background(), "u-1")
	assert.ErrorIs(t, err, failover.ErrBackendUnavailable)
}

func TestUserStore_FailsOverToFallback(t *testing.T) {
	primaryDB, primaryMock, err := sqlmock.New()
	require.NoError(t, err)
	fallbackDB, fallbackMock, err := sqlmock.New()
	require.NoError(t, err)

	mgr := failover.New[*sql.Conn](KindPostgres,
		NewPostgresPoolFromDB(primaryDB, failover.RolePrimary),
		NewPostgresPoolFromDB(fallbackDB, failover.RoleFallback))
	defer mgr.Close()
	store := NewUserStore(mgr)

	primaryMock.ExpectQuery("SELECT 1").WillReturnError(errors.New("dial tcp: i/o timeout"))
	fallbackMock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE user_id = $1")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "a@b.c", "alice", "Alice", "hash", nil, nil, true, false, time.Now(), nil))

	user, err := store.GetUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, failover.StateUsingFallback, mgr.State())
	assert.Equal(t, "fallback", mgr.Status().CurrentDB)

	assert.NoError(t, primaryMock.ExpectationsWereMet())
	assert.NoError(t, fallbackMock.ExpectationsWereMet())
}
