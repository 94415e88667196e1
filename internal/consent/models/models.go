package models

import (
	"time"

	dErrors "medgate/pkg/domain-errors"
)

// Kind is the closed set of permissions a patient can grant.
type Kind string

const (
	KindView  Kind = "view"
	KindEdit  Kind = "edit"
	KindShare Kind = "share"
)

// IsValid reports whether the kind is one of the known variants.
func (k Kind) IsValid() bool {
	switch k {
	case KindView, KindEdit, KindShare:
		return true
	}
	return false
}

// Status is the stored lifecycle state of a consent record.
//
// The stored status is a cache, not ground truth: a record whose expiry has
// passed is expired for evaluation purposes even while the column still says
// active. EffectiveStatus is the only function decisions may consult.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Record is a patient's grant of a permission kind to a facility.
//
// # Scoping Invariant
//
// A consent is scoped to (patient, facility), never to an individual worker:
// every worker employed at the consented facility inherits the grant. Status
// transitions are one-way. ACTIVE → REVOKED happens explicitly and only by
// the granting patient; ACTIVE → EXPIRED is derived from expires_at at read
// time and never written back.
type Record struct {
	ID         string
	Kind       Kind
	GrantedAt  *time.Time
	ExpiresAt  *time.Time // nil = no expiry
	Purpose    string
	Status     Status
	PatientID  string
	FacilityID string
	GrantedBy  string // user ID of the granting patient; only they may revoke
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// NewRecord creates a Record with domain invariant checks.
func NewRecord(id string, kind Kind, patientID, facilityID, grantedBy, purpose string, grantedAt time.Time, expiresAt *time.Time) (*Record, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consent ID required")
	}
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid consent kind")
	}
	if patientID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "patient ID required")
	}
	if facilityID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "facility ID required")
	}
	if grantedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "granting user required")
	}
	if expiresAt != nil && expiresAt.Before(grantedAt) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expiry must be after grant time")
	}
	return &Record{
		ID:         id,
		Kind:       kind,
		GrantedAt:  &grantedAt,
		ExpiresAt:  expiresAt,
		Purpose:    purpose,
		Status:     StatusActive,
		PatientID:  patientID,
		FacilityID: facilityID,
		GrantedBy:  grantedBy,
		CreatedAt:  grantedAt,
	}, nil
}

// EffectiveStatus reports the consent's real-time validity at the provided
// time, as a pure function of stored fields. Nothing is written back.
func (c Record) EffectiveStatus(now time.Time) Status {
	if c.Status == StatusRevoked {
		return StatusRevoked
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return StatusExpired
	}
	return c.Status
}

// IsActive returns true when the consent is currently valid.
func (c Record) IsActive(now time.Time) bool {
	return c.EffectiveStatus(now) == StatusActive
}

// grantedOrCreated returns the best ordering timestamp for tie-breaking.
func (c Record) grantedOrCreated() time.Time {
	if c.GrantedAt != nil {
		return *c.GrantedAt
	}
	return c.CreatedAt
}

// Governing selects the single record that governs evaluation when several
// exist for the same (patient, facility) pair: the most recently granted
// (falling back to created) wins. Returns nil for an empty slice.
func Governing(records []*Record) *Record {
	var governing *Record
	for _, record := range records {
		if governing == nil || record.grantedOrCreated().After(governing.grantedOrCreated()) {
			governing = record
		}
	}
	return governing
}
