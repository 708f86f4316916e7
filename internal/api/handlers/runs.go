package handlers

import (
	"sync"

	"github.com/google/uuid"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
)

// RunStore keeps finished reconciliation runs in memory so clients can
// fetch results and exports after the reconcile request returns. Runs
// are lost on restart.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.ResultSet
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]domain.ResultSet)}
}

// Save stores a result set and returns its run ID.
func (s *RunStore) Save(set domain.ResultSet) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.runs[id] = set
	s.mu.Unlock()
	return id
}

// Get retrieves a result set by run ID.
func (s *RunStore) Get(id string) (domain.ResultSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.runs[id]
	return set, ok
}
