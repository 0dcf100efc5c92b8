// Package storetest provides a recording Store fake and a conformance suite
// for idempotency.Store implementations.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/seayoo-io/combo-sdk-go/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store wraps a MemoryStore, counts calls and lets tests override either
// primitive.
type Store struct {
	*idempotency.MemoryStore

	SetIfAbsentFn  func(ctx context.Context, key, value string) (string, error)
	SetIfPresentFn func(ctx context.Context, key, value string) error

	mu    sync.Mutex
	calls map[string]int
}

func New() *Store {
	return &Store{MemoryStore: idempotency.NewMemoryStore()}
}

func (s *Store) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	s.inc("SetIfAbsent")
	if s.SetIfAbsentFn != nil {
		return s.SetIfAbsentFn(ctx, key, value)
	}
	return s.MemoryStore.SetIfAbsent(ctx, key, value)
}

func (s *Store) SetIfPresent(ctx context.Context, key, value string) error {
	s.inc("SetIfPresent")
	if s.SetIfPresentFn != nil {
		return s.SetIfPresentFn(ctx, key, value)
	}
	return s.MemoryStore.SetIfPresent(ctx, key, value)
}

func (s *Store) inc(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

// Calls returns how often method was called.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of calls to either primitive.
func (s *Store) TotalCalls() int {
	return s.Calls("SetIfAbsent") + s.Calls("SetIfPresent")
}

// Run checks the Store contract. newStore must return an empty store each
// time it is called; keys are unique per subtest anyway.
func Run(t *testing.T, newStore func(t *testing.T) idempotency.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("set if absent writes once", func(t *testing.T) {
		s := newStore(t)

		prev, err := s.SetIfAbsent(ctx, "k-absent", "first")
		require.NoError(t, err)
		assert.Empty(t, prev)

		prev, err = s.SetIfAbsent(ctx, "k-absent", "second")
		require.NoError(t, err)
		assert.Equal(t, "first", prev)
	})

	t.Run("set if present ignores missing keys", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.SetIfPresent(ctx, "k-missing", "value"))

		prev, err := s.SetIfAbsent(ctx, "k-missing", "fresh")
		require.NoError(t, err)
		assert.Empty(t, prev)
	})

	t.Run("set if present overwrites", func(t *testing.T) {
		s := newStore(t)

		_, err := s.SetIfAbsent(ctx, "k-present", "v1")
		require.NoError(t, err)
		require.NoError(t, s.SetIfPresent(ctx, "k-present", "v2"))

		prev, err := s.SetIfAbsent(ctx, "k-present", "v3")
		require.NoError(t, err)
		assert.Equal(t, "v2", prev)
	})

	t.Run("concurrent set if absent has one winner", func(t *testing.T) {
		s := newStore(t)
		const writers = 20

		var winners atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				prev, err := s.SetIfAbsent(ctx, "k-race", fmt.Sprintf("writer-%d", i))
				if assert.NoError(t, err) && prev == "" {
					winners.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners.Load())
	})
}
