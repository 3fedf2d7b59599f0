package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreate(t *testing.T) {
	store := NewStore(2 * time.Minute)

	first, created := store.GetOrCreate("CA1")
	assert.True(t, created, "first lookup creates the session")
	second, created := store.GetOrCreate("CA1")
	assert.False(t, created, "second lookup reuses it")
	assert.Same(t, first, second, "same call ID must return the same session")
	assert.Equal(t, PhaseTakingOrder, first.Phase)

	other, _ := store.GetOrCreate("CA2")
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, store.Len())
}

func TestStoreGetNotFound(t *testing.T) {
	store := NewStore(2 * time.Minute)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	var evicted []*OrderSession
	store := NewStore(2*time.Minute, WithEvictHook(func(s *OrderSession) {
		evicted = append(evicted, s)
	}))

	store.GetOrCreate("CA1")
	store.Delete("CA1")

	_, err := store.Get("CA1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.Len(t, evicted, 1)
	assert.Equal(t, "CA1", evicted[0].CallID)

	// Deleting an unknown ID is a no-op, not a panic.
	store.Delete("CA1")
	assert.Len(t, evicted, 1)
}

func TestStoreSweepEvictsIdleSessions(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	store := NewStore(2*time.Minute, WithClock(clock))

	store.GetOrCreate("idle")
	store.GetOrCreate("active")

	now = now.Add(90 * time.Second)
	store.Touch("active")

	now = now.Add(45 * time.Second) // "idle" is now 2m15s old, "active" 45s
	evicted := store.Sweep()

	assert.Equal(t, 1, evicted)
	_, err := store.Get("idle")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get("active")
	assert.NoError(t, err)
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(2 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("CA%d", n)
			store.GetOrCreate(id)
			store.Touch(id)
			if _, err := store.Get(id); err != nil {
				t.Errorf("Get(%s): %v", id, err)
			}
			if n%2 == 0 {
				store.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, store.Len())
}
