package peerclient

import (
	"sync"
	"time"
)

// HealthStore tracks the last failure time per peer origin. Implementations
// must be safe for concurrent use; absence of an entry means the origin is
// healthy. State is transient and lost on restart, which only costs one
// re-probe per origin.
type HealthStore interface {
	LastFailure(origin string) (time.Time, bool)
	MarkFailure(origin string, at time.Time)
	ClearFailure(origin string)
}

// MemoryHealthStore is the default in-process HealthStore backed by a
// sync.Map.
type MemoryHealthStore struct {
	failures sync.Map
}

// NewMemoryHealthStore creates an empty in-memory health store.
func NewMemoryHealthStore() *MemoryHealthStore {
	return &MemoryHealthStore{}
}

// LastFailure returns the recorded failure time for an origin.
func (s *MemoryHealthStore) LastFailure(origin string) (time.Time, bool) {
	v, ok := s.failures.Load(origin)
	if !ok {
		return time.Time{}, false
	}
	return v.(time.Time), true
}

// MarkFailure records a failure time for an origin.
func (s *MemoryHealthStore) MarkFailure(origin string, at time.Time) {
	s.failures.Store(origin, at)
}

// ClearFailure removes the failure record for an origin.
func (s *MemoryHealthStore) ClearFailure(origin string) {
	s.failures.Delete(origin)
}
