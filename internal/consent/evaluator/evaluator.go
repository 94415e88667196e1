// Package evaluator holds the decision core: given a patient and a facility,
// determine the governing consent and an allow/deny verdict. It is a pure
// read-and-compute component; it never mutates consent state, so a computed
// expiry can never race a concurrent revoke.
package evaluator

import (
	"context"
	"time"

	"medgate/internal/consent/models"
	dErrors "medgate/pkg/domain-errors"
)

// ConsentSource is the read-only slice of the consent store the evaluator uses.
type ConsentSource interface {
	ListByPatientAndFacility(ctx context.Context, patientID, facilityID string) ([]*models.Record, error)
}

// Reason is the closed set of verdict reason codes.
type Reason string

const (
	ReasonActive    Reason = "active"
	ReasonNoConsent Reason = "no_consent"
	ReasonExpired   Reason = "expired"
	ReasonRevoked   Reason = "revoked"
)

// Verdict is the outcome of one evaluation, always paired with a reason.
type Verdict struct {
	Allowed     bool
	Reason      Reason
	Consent     *models.Record // governing record; nil when none exists
	EvaluatedAt time.Time
}

// Evaluator computes verdicts from the latest store read at evaluation time.
// Verdicts are never cached across calls, so a revoke that commits before the
// read is observed immediately.
type Evaluator struct {
	consents ConsentSource
}

func New(consents ConsentSource) *Evaluator {
	return &Evaluator{consents: consents}
}

// Evaluate determines whether workers at facilityID may currently access
// patientID's data. When several records exist for the pair, the most
// recently granted one governs.
func (e *Evaluator) Evaluate(ctx context.Context, patientID, facilityID string) (*Verdict, error) {
	now := time.Now()

	records, err := e.consents.ListByPatientAndFacility(ctx, patientID, facilityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "consent_lookup_failed")
	}

	governing := models.Governing(records)
	if governing == nil {
		return &Verdict{Allowed: false, Reason: ReasonNoConsent, EvaluatedAt: now}, nil
	}

	switch governing.EffectiveStatus(now) {
	case models.StatusActive:
		return &Verdict{Allowed: true, Reason: ReasonActive, Consent: governing, EvaluatedAt: now}, nil
	case models.StatusRevoked:
		return &Verdict{Allowed: false, Reason: ReasonRevoked, Consent: governing, EvaluatedAt: now}, nil
	case models.StatusExpired:
		return &Verdict{Allowed: false, Reason: ReasonExpired, Consent: governing, EvaluatedAt: now}, nil
	default:
		// a stored status outside the closed set denies rather than allows
		return &Verdict{Allowed: false, Reason: ReasonNoConsent, Consent: governing, EvaluatedAt: now}, nil
	}
}
