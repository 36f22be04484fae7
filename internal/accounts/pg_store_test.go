package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodash/agrodash/internal/platform/db"
	"github.com/agrodash/agrodash/internal/shared"
)

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, isUniqueViolation(wrapped))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}

func TestParseTimestamp(t *testing.T) {
	parsed, err := parseTimestamp(Timestamp(fixedNow))
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(parsed))

	_, err = parseTimestamp("not a time")
	assert.Error(t, err)
}

func TestPostgresCreateAccountRejectsBadTimestamp(t *testing.T) {
	store := NewPostgresStore(nil)
	user := NewUserRecord("abc123", "", fixedNow)
	user.CreatedAt = "yesterday"

	err := store.CreateAccount(context.Background(), user, NewProfileRecord("abc123", "", fixedNow))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "createdAt")
}

func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("AGRODASH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AGRODASH_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	store := NewPostgresStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestPostgresStoreCreateAndLoad(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	userID := "pg-" + uuid.NewString()

	_, err := store.GetUser(ctx, userID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	user := NewUserRecord(userID, "farmer@example.com", fixedNow)
	profile := NewProfileRecord(userID, "farmer@example.com", fixedNow)
	require.NoError(t, store.CreateAccount(ctx, user, profile))

	got, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, user, *got)
	gotProfile, err := store.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, profile, *gotProfile)

	err = store.CreateAccount(ctx, user, NewProfileRecord(userID, "", fixedNow))
	require.ErrorIs(t, err, shared.ErrWriteConflict)
}
