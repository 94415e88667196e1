package store

import (
	"context"
	"sync"
	"time"

	"medgate/internal/consent/models"
)

// InMemoryStore stores consent records in memory for tests and
// database-less deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	consents map[string]*models.Record
}

// NewInMemoryStore constructs an empty in-memory consent store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{consents: make(map[string]*models.Record)}
}

func (s *InMemoryStore) Save(_ context.Context, consent *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyRecord := *consent
	s.consents[consent.ID] = &copyRecord
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, consentID string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.consents[consentID]
	if !ok {
		return nil, ErrNotFound
	}
	copyRecord := *record
	return &copyRecord, nil
}

func (s *InMemoryStore) ListByPatient(_ context.Context, patientID string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.consents {
		if record.PatientID == patientID {
			copyRecord := *record
			out = append(out, &copyRecord)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByFacility(_ context.Context, facilityID string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.consents {
		if record.FacilityID == facilityID {
			copyRecord := *record
			out = append(out, &copyRecord)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByPatientAndFacility(_ context.Context, patientID, facilityID string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.consents {
		if record.PatientID == patientID && record.FacilityID == facilityID {
			copyRecord := *record
			out = append(out, &copyRecord)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, consentID string, revokedAt time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.consents[consentID]
	if !ok {
		return nil, ErrNotFound
	}
	if record.Status != models.StatusRevoked {
		record.Status = models.StatusRevoked
		record.RevokedAt = &revokedAt
	}
	copyRecord := *record
	return &copyRecord, nil
}

var _ Store = (*InMemoryStore)(nil)
