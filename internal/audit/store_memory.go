package audit

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps audit entries in process memory. Used in tests and
// when no database is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	s.entries = append(s.entries, &e)
	return nil
}

func (s *InMemoryStore) ListByWorker(_ context.Context, workerID string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *Entry) bool { return e.WorkerID == workerID }), nil
}

func (s *InMemoryStore) ListByPatient(_ context.Context, patientID string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(e *Entry) bool { return e.PatientID == patientID }), nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*Entry) bool { return true }), nil
}

// collect returns copies, newest first. Callers must hold the read lock.
func (s *InMemoryStore) collect(match func(*Entry) bool) []*Entry {
	var out []*Entry
	for _, e := range s.entries {
		if match(e) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}
