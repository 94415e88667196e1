package directory

import (
	"context"
	"time"

	dErrors "medgate/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store is the read/write interface over identity entities.
//
// Error Contract:
// - Get/lookup methods return ErrNotFound when no record exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	SaveUser(ctx context.Context, user *User) error

	GetFacility(ctx context.Context, facilityID string) (*Facility, error)
	GetFacilityByName(ctx context.Context, name string) (*Facility, error)
	ListFacilities(ctx context.Context) ([]*Facility, error)
	SaveFacility(ctx context.Context, facility *Facility) error

	GetPatient(ctx context.Context, patientID string) (*Patient, error)
	GetPatientByUser(ctx context.Context, userID string) (*Patient, error)
	SavePatient(ctx context.Context, patient *Patient) error
	// UpdatePatientDemographics overwrites the cached demographic fields from
	// a registry snapshot. The registry is authoritative; local linkage
	// columns are untouched.
	UpdatePatientDemographics(ctx context.Context, patientID, firstName, lastName string, dateOfBirth time.Time) error

	GetWorkerByUser(ctx context.Context, userID string) (*Worker, error)
	SaveWorker(ctx context.Context, worker *Worker) error
}
