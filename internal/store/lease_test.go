package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLease_FirstHolderWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "sync-pass", "holder-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AcquireLease(ctx, "sync-pass", "holder-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "contested lease must not be granted")
}

func TestAcquireLease_SameHolderRenews(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "sync-pass", "holder-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AcquireLease(ctx, "sync-pass", "holder-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "holder must be able to renew its own lease")
}

func TestAcquireLease_ExpiredLeaseIsStolen(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := openTestStore(t, WithClock(clock))
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "sync-pass", "crashed-pass", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Not yet expired: still contested.
	now = now.Add(30 * time.Second)
	ok, err = s.AcquireLease(ctx, "sync-pass", "next-pass", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Past the TTL the lease is fair game.
	now = now.Add(2 * time.Minute)
	ok, err = s.AcquireLease(ctx, "sync-pass", "next-pass", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease must be stolen")
}

func TestReleaseLease(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "sync-pass", "holder-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.ReleaseLease(ctx, "sync-pass", "holder-a"))

	ok, err = s.AcquireLease(ctx, "sync-pass", "holder-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released lease must be available immediately")
}

func TestReleaseLease_WrongHolderIsNoOp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "sync-pass", "holder-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// A stale pass releasing a lease it no longer owns must not free it.
	require.NoError(t, s.ReleaseLease(ctx, "sync-pass", "holder-b"))

	ok, err = s.AcquireLease(ctx, "sync-pass", "holder-c", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
