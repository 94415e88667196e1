package store

import (
	"context"
	"time"

	"medgate/internal/consent/models"
	dErrors "medgate/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store defines the persistence interface for consent records.
//
// Error Contract:
// - Get returns ErrNotFound when no record exists
// - Revoke returns ErrNotFound when the record is unknown
// - Other methods return nil on success or wrapped errors on failure
//
// Records are never physically deleted; revocation is the only mutation.
type Store interface {
	Save(ctx context.Context, consent *models.Record) error
	Get(ctx context.Context, consentID string) (*models.Record, error)
	ListByPatient(ctx context.Context, patientID string) ([]*models.Record, error)
	ListByFacility(ctx context.Context, facilityID string) ([]*models.Record, error)
	ListByPatientAndFacility(ctx context.Context, patientID, facilityID string) ([]*models.Record, error)
	// Revoke flips the stored status to revoked and stamps revoked_at.
	// Ownership checks belong to the service layer; the store only mutates.
	Revoke(ctx context.Context, consentID string, revokedAt time.Time) (*models.Record, error)
}
