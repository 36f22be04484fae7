package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/agrodash/agrodash/internal/identity"
	"github.com/agrodash/agrodash/internal/shared"
)

// accountLoadTimeout bounds one shared account lookup.
const accountLoadTimeout = 10 * time.Second

// Outcome reports what Bootstrap did.
type Outcome string

const (
	// OutcomeCreated means both records were written by this call.
	OutcomeCreated Outcome = "created"
	// OutcomeExists means a user record was already present; nothing was written.
	OutcomeExists Outcome = "exists"
)

// BootstrapResult carries the records relevant to the outcome.
type BootstrapResult struct {
	Outcome Outcome
	User    *UserRecord
	Profile *ProfileRecord
}

// Summary is the identity summary returned to clients after creation.
type Summary struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	CurrentStep string `json:"currentStep"`
}

// Summary builds the client facing summary of a created account.
func (r BootstrapResult) Summary() Summary {
	if r.User == nil {
		return Summary{}
	}
	step := InitialProfileStep
	if r.Profile != nil && r.Profile.CurrentStep != "" {
		step = r.Profile.CurrentStep
	}
	return Summary{UserID: r.User.UserID, Email: r.User.Email, CurrentStep: step}
}

// AccountCreated is published after a successful bootstrap.
type AccountCreated struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Publisher forwards account lifecycle events.
type Publisher interface {
	AccountCreated(ctx context.Context, event AccountCreated) error
}

// Service wraps the account bootstrap rules.
type Service struct {
	store     Store
	cache     *Cache
	publisher Publisher
	logger    *slog.Logger
	clock     func() time.Time
	group     singleflight.Group
}

// NewService constructs a Service. cache and publisher may be nil.
func NewService(store Store, cache *Cache, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Bootstrap ensures exactly one user record and one profile record exist for
// the identity. An existing user record short-circuits with OutcomeExists and
// no writes. Otherwise both records are committed in one conditional write;
// losing a concurrent race surfaces as shared.ErrWriteConflict.
func (s *Service) Bootstrap(ctx context.Context, id identity.Identity) (BootstrapResult, error) {
	if id.UserID == "" {
		return BootstrapResult{}, shared.ErrUnauthenticated
	}
	logger := s.logger.With(slog.String("user_id", id.UserID))

	existing, err := s.store.GetUser(ctx, id.UserID)
	switch {
	case err == nil:
		logger.Info("bootstrap skipped, user record exists")
		return BootstrapResult{Outcome: OutcomeExists, User: existing}, nil
	case !errors.Is(err, shared.ErrNotFound):
		return BootstrapResult{}, fmt.Errorf("accounts: lookup user: %w", err)
	}

	now := s.clock()
	user := NewUserRecord(id.UserID, id.Email, now)
	profile := NewProfileRecord(id.UserID, id.Email, now)
	if err := s.store.CreateAccount(ctx, user, profile); err != nil {
		return BootstrapResult{}, fmt.Errorf("accounts: create account: %w", err)
	}
	logger.Info("user and profile records created")

	if err := s.cache.Invalidate(ctx, id.UserID); err != nil {
		logger.Warn("invalidate account cache", slog.Any("error", err))
	}
	if s.publisher != nil {
		event := AccountCreated{UserID: user.UserID, Email: user.Email, CreatedAt: user.CreatedAt}
		if err := s.publisher.AccountCreated(ctx, event); err != nil {
			logger.Warn("publish account created", slog.Any("error", err))
		}
	}
	return BootstrapResult{Outcome: OutcomeCreated, User: &user, Profile: &profile}, nil
}

// Account loads the user and profile records for userID. Concurrent lookups
// for the same user share one store round trip.
func (s *Service) Account(ctx context.Context, userID string) (Account, error) {
	if userID == "" {
		return Account{}, shared.ErrUnauthenticated
	}
	// The flight is shared, so it must outlive any single caller.
	flightCtx := context.WithoutCancel(ctx)
	resultChan := s.group.DoChan(userID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(flightCtx, accountLoadTimeout)
		defer cancel()
		var account Account
		err := s.cache.FetchJSON(loadCtx, userID, &account, func(ctx context.Context) (interface{}, error) {
			return s.loadAccount(ctx, userID)
		})
		return account, err
	})
	select {
	case <-ctx.Done():
		return Account{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Account{}, res.Err
		}
		return res.Val.(Account), nil
	}
}

func (s *Service) loadAccount(ctx context.Context, userID string) (Account, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Account{}, fmt.Errorf("accounts: load user: %w", err)
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return Account{}, fmt.Errorf("accounts: load profile: %w", err)
	}
	return Account{User: *user, Profile: *profile}, nil
}
