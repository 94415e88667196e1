package directory

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps identity entities in memory. Used by tests and by
// deployments without a database.
type InMemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*User
	facilities map[string]*Facility
	patients   map[string]*Patient
	workers    map[string]*Worker // keyed by user ID
}

// NewInMemoryStore constructs an empty in-memory directory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[string]*User),
		facilities: make(map[string]*Facility),
		patients:   make(map[string]*Patient),
		workers:    make(map[string]*Worker),
	}
}

func (s *InMemoryStore) GetUser(_ context.Context, userID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copyUser := *user
	return &copyUser, nil
}

func (s *InMemoryStore) SaveUser(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyUser := *user
	s.users[user.ID] = &copyUser
	return nil
}

func (s *InMemoryStore) GetFacility(_ context.Context, facilityID string) (*Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	facility, ok := s.facilities[facilityID]
	if !ok {
		return nil, ErrNotFound
	}
	copyFacility := *facility
	return &copyFacility, nil
}

func (s *InMemoryStore) GetFacilityByName(_ context.Context, name string) (*Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, facility := range s.facilities {
		if facility.Name == name {
			copyFacility := *facility
			return &copyFacility, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) ListFacilities(_ context.Context) ([]*Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Facility
	for _, facility := range s.facilities {
		copyFacility := *facility
		out = append(out, &copyFacility)
	}
	return out, nil
}

func (s *InMemoryStore) SaveFacility(_ context.Context, facility *Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyFacility := *facility
	s.facilities[facility.ID] = &copyFacility
	return nil
}

func (s *InMemoryStore) GetPatient(_ context.Context, patientID string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patient, ok := s.patients[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	copyPatient := *patient
	return &copyPatient, nil
}

func (s *InMemoryStore) GetPatientByUser(_ context.Context, userID string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, patient := range s.patients {
		if patient.UserID == userID {
			copyPatient := *patient
			return &copyPatient, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) SavePatient(_ context.Context, patient *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyPatient := *patient
	s.patients[patient.ID] = &copyPatient
	return nil
}

func (s *InMemoryStore) UpdatePatientDemographics(_ context.Context, patientID, firstName, lastName string, dateOfBirth time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	patient, ok := s.patients[patientID]
	if !ok {
		return ErrNotFound
	}
	patient.FirstName = firstName
	patient.LastName = lastName
	patient.DateOfBirth = dateOfBirth
	return nil
}

func (s *InMemoryStore) GetWorkerByUser(_ context.Context, userID string) (*Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	worker, ok := s.workers[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copyWorker := *worker
	return &copyWorker, nil
}

func (s *InMemoryStore) SaveWorker(_ context.Context, worker *Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyWorker := *worker
	s.workers[worker.UserID] = &copyWorker
	return nil
}

var _ Store = (*InMemoryStore)(nil)
