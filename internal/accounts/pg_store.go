package accounts

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrodash/agrodash/internal/platform/db"
	"github.com/agrodash/agrodash/internal/shared"
)

//go:embed schema.sql
var pgSchema string

const uniqueViolation = "23505"

// PostgresStore implements Store on PostgreSQL, keeping each record as a
// JSONB document keyed by user_id.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the account tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("accounts: ensure schema: %w", err)
	}
	return nil
}

// GetUser fetches a user record.
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	var user UserRecord
	if err := s.getDocument(ctx, `SELECT document FROM account_users WHERE user_id = $1`, userID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile fetches a profile record.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*ProfileRecord, error) {
	var profile ProfileRecord
	if err := s.getDocument(ctx, `SELECT document FROM account_profiles WHERE user_id = $1`, userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *PostgresStore) getDocument(ctx context.Context, query, userID string, dest interface{}) error {
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

// CreateAccount inserts both rows in one transaction. The primary keys make
// a concurrent duplicate fail with a unique violation.
func (s *PostgresStore) CreateAccount(ctx context.Context, user UserRecord, profile ProfileRecord) error {
	userDoc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("accounts: encode user: %w", err)
	}
	profileDoc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("accounts: encode profile: %w", err)
	}
	createdAt, err := parseTimestamp(user.CreatedAt)
	if err != nil {
		return fmt.Errorf("accounts: user %s createdAt: %w", user.UserID, err)
	}
	updatedAt, err := parseTimestamp(user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("accounts: user %s updatedAt: %w", user.UserID, err)
	}

	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account_users (user_id, email, document, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			user.UserID, user.Email, userDoc, createdAt, updatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO account_profiles (user_id, document, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
			profile.UserID, profileDoc, createdAt, updatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("accounts: create account %s: %w", user.UserID, shared.ErrWriteConflict)
		}
		return fmt.Errorf("accounts: create account %s: %w", user.UserID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}

var _ Store = (*PostgresStore)(nil)
