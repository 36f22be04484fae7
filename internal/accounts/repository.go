package accounts

import "context"

// Store persists user and profile records. Implementations must make
// CreateAccount all-or-nothing and conditional on neither key existing,
// reporting a lost race as shared.ErrWriteConflict.
type Store interface {
	GetUser(ctx context.Context, userID string) (*UserRecord, error)
	GetProfile(ctx context.Context, userID string) (*ProfileRecord, error)
	CreateAccount(ctx context.Context, user UserRecord, profile ProfileRecord) error
}
