package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/agrodash/agrodash/internal/shared"
)

// memStore emulates a conditional all-or-nothing store.
type memStore struct {
	mu       sync.Mutex
	users    map[string]UserRecord
	profiles map[string]ProfileRecord

	getUserCalls    int
	getProfileCalls int
	createCalls     int
	writes          int

	getErr    error
	createErr error

	// barrier, when set, holds every GetUser after its lookup until all
	// callers arrive, so the conditional write has to arbitrate.
	barrier *sync.WaitGroup

	// entered and release, when set, park GetUser until release closes or
	// the caller's context ends.
	entered chan struct{}
	release chan struct{}
}

func newMemStore() *memStore {
	return &memStore{users: map[string]UserRecord{}, profiles: map[string]ProfileRecord{}}
}

func (s *memStore) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	s.mu.Lock()
	s.getUserCalls++
	barrier := s.barrier
	entered, release := s.entered, s.release
	err := s.getErr
	user, ok := s.users[userID]
	s.mu.Unlock()

	if release != nil {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Every caller has looked before any of them may write.
	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

func (s *memStore) GetProfile(ctx context.Context, userID string) (*ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getProfileCalls++
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &profile, nil
}

func (s *memStore) CreateAccount(ctx context.Context, user UserRecord, profile ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	_, userTaken := s.users[user.UserID]
	_, profileTaken := s.profiles[profile.UserID]
	if userTaken || profileTaken {
		return fmt.Errorf("mem: create %s: %w", user.UserID, shared.ErrWriteConflict)
	}
	s.users[user.UserID] = user
	s.profiles[profile.UserID] = profile
	s.writes += 2
	return nil
}

func (s *memStore) counts() (users, profiles, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), len(s.profiles), s.writes
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []AccountCreated
	err    error
}

func (p *recordingPublisher) AccountCreated(ctx context.Context, event AccountCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type signupOutcomes struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *signupOutcomes) ObserveSignup(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}
