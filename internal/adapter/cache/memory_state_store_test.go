package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/naveenkrish13/Fyers-OAuth-Token-Retrival/internal/domain/oauth"
)

func TestMemoryStateStore_ConsumeOnce(t *testing.T) {
	store := NewMemoryStateStore(time.Minute, 100)
	ctx := context.Background()

	stateID, secret, err := store.Issue(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, stateID)
	require.NotEmpty(t, secret)

	require.NoError(t, store.Consume(ctx, stateID, secret))

	// A replay with the same pair must look identical to an unknown state.
	err = store.Consume(ctx, stateID, secret)
	require.ErrorIs(t, err, oauth.ErrStateNotFound)
}

func TestMemoryStateStore_MismatchStillRemoves(t *testing.T) {
	store := NewMemoryStateStore(time.Minute, 100)
	ctx := context.Background()

	stateID, secret, err := store.Issue(ctx)
	require.NoError(t, err)

	err = store.Consume(ctx, stateID, "not-the-secret")
	require.ErrorIs(t, err, oauth.ErrStateMismatch)

	// The failed attempt burned the entry; even the right secret is too late.
	err = store.Consume(ctx, stateID, secret)
	require.ErrorIs(t, err, oauth.ErrStateNotFound)
}

func TestMemoryStateStore_UnknownState(t *testing.T) {
	store := NewMemoryStateStore(time.Minute, 100)
	err := store.Consume(context.Background(), "nope", "whatever")
	require.ErrorIs(t, err, oauth.ErrStateNotFound)
}

func TestMemoryStateStore_IssueUniqueness(t *testing.T) {
	store := NewMemoryStateStore(time.Minute, 2000)
	ctx := context.Background()

	ids := make(map[string]struct{}, 1000)
	secrets := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		stateID, secret, err := store.Issue(ctx)
		require.NoError(t, err)
		ids[stateID] = struct{}{}
		secrets[secret] = struct{}{}
	}
	require.Len(t, ids, 1000)
	require.Len(t, secrets, 1000)
}

func TestMemoryStateStore_TTLEviction(t *testing.T) {
	store := NewMemoryStateStore(time.Minute, 100)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	stateID, secret, err := store.Issue(ctx)
	require.NoError(t, err)

	// Abandoned logins are swept on the next issue after the TTL passes.
	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, _, err = store.Issue(ctx)
	require.NoError(t, err)

	err = store.Consume(ctx, stateID, secret)
	require.ErrorIs(t, err, oauth.ErrStateNotFound)
	require.Equal(t, 1, store.Len())
}

func TestMemoryStateStore_CapEvictsOldest(t *testing.T) {
	store := NewMemoryStateStore(time.Hour, 3)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }
	firstID, firstSecret, err := store.Issue(ctx)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		store.now = func() time.Time { return tick }
		_, _, err := store.Issue(ctx)
		require.NoError(t, err)
	}

	require.LessOrEqual(t, store.Len(), 3)
	err = store.Consume(ctx, firstID, firstSecret)
	require.ErrorIs(t, err, oauth.ErrStateNotFound)
}
