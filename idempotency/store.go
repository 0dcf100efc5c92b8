// Package idempotency makes duplicate deliveries of a GM command produce a
// single execution. All coordination goes through a Store; the package keeps
// no shared in-process state of its own.
package idempotency

import (
	"context"
	"sync"
)

// Store is the persistence contract of the coordinator. Keys and values are
// opaque strings.
//
// Both methods MUST be atomic with respect to every other writer of the same
// key, including writers in other processes. The at-most-one-execution
// guarantee holds only as far as the store honours this.
type Store interface {
	// SetIfAbsent writes value when key does not exist and returns "".
	// When key exists it leaves it untouched and returns the stored value.
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
	// SetIfPresent overwrites key only when it exists; otherwise it is a
	// no-op.
	SetIfPresent(ctx context.Context, key, value string) error
}

// MemoryStore keeps records in a map. It is meant for local testing and is
// not shared across processes. Records never expire.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]string)}
}

func (s *MemoryStore) SetIfAbsent(_ context.Context, key, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.records[key]; ok {
		return prev, nil
	}
	s.records[key] = value
	return "", nil
}

func (s *MemoryStore) SetIfPresent(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		s.records[key] = value
	}
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
