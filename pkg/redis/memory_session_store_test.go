package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *MemorySessionStore {
	store := NewMemorySessionStore()
	t.Cleanup(store.Close)
	return store
}

func TestMemorySessionStore_SaveResolveDelete(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok", 7, time.Hour))

	id, found, err := store.Resolve(ctx, "tok", time.Hour)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(7), id)

	require.NoError(t, store.Delete(ctx, "tok"))
	_, found, err = store.Resolve(ctx, "tok", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemorySessionStore_SlidingExpiry(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	ttl := 300 * time.Millisecond

	require.NoError(t, store.Save(ctx, "tok", 7, ttl))

	// resolving inside the window keeps the session alive past its first deadline
	for i := 0; i < 3; i++ {
		time.Sleep(150 * time.Millisecond)
		_, found, err := store.Resolve(ctx, "tok", ttl)
		require.NoError(t, err)
		require.True(t, found, "resolve %d", i)
	}

	time.Sleep(2 * ttl)
	_, found, err := store.Resolve(ctx, "tok", ttl)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemorySessionStore_EvictsUnreadSessions(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Save(ctx, fmt.Sprintf("visitor-%d", i), uint(i+1), 50*time.Millisecond))
	}
	require.NoError(t, store.Save(ctx, "regular", 42, time.Hour))

	require.Eventually(t, func() bool {
		return store.Len() == 1
	}, 3*time.Second, 20*time.Millisecond)

	id, found, err := store.Resolve(ctx, "regular", time.Hour)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(42), id)
}
