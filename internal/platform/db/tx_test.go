package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
	commitErr error
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.commits++
	return f.commitErr
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rollbacks++
	return nil
}

type fakeStarter struct {
	tx   *fakeTx
	opts pgx.TxOptions
	err  error
}

func (s *fakeStarter) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	starter := &fakeStarter{tx: &fakeTx{}}
	require.NoError(t, WithTx(context.Background(), starter, func(pgx.Tx) error { return nil }))
	assert.Equal(t, pgx.RepeatableRead, starter.opts.IsoLevel)
	assert.Equal(t, 1, starter.tx.commits)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	starter := &fakeStarter{tx: &fakeTx{}}
	boom := errors.New("boom")
	err := WithTx(context.Background(), starter, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, starter.tx.commits)
	assert.Equal(t, 1, starter.tx.rollbacks)
}

func TestWithTxCommitFailure(t *testing.T) {
	commitErr := errors.New("serialization failure")
	starter := &fakeStarter{tx: &fakeTx{commitErr: commitErr}}
	err := WithTx(context.Background(), starter, func(pgx.Tx) error { return nil })
	require.ErrorIs(t, err, commitErr)
	assert.Equal(t, 1, starter.tx.rollbacks)
}

func TestWithTxBeginFailure(t *testing.T) {
	beginErr := errors.New("pool closed")
	called := false
	err := WithTx(context.Background(), &fakeStarter{err: beginErr}, func(pgx.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, beginErr)
	assert.False(t, called)
}
