package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medgate/internal/consent/models"
	"medgate/internal/consent/store"
	"medgate/internal/directory"
	"medgate/internal/platform/metrics"
	dErrors "medgate/pkg/domain-errors"
)

// Directory is the slice of identity lookups the consent service needs.
type Directory interface {
	GetUser(ctx context.Context, userID string) (*directory.User, error)
	GetFacilityByName(ctx context.Context, name string) (*directory.Facility, error)
	GetPatientByUser(ctx context.Context, userID string) (*directory.Patient, error)
	GetWorkerByUser(ctx context.Context, userID string) (*directory.Worker, error)
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service owns the consent record lifecycle: creation by the patient,
// revocation by the owner, and scoped listings. Evaluation lives in the
// evaluator package; this service never computes verdicts.
type Service struct {
	store     store.Store
	directory Directory
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(consentStore store.Store, dir Directory, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:     consentStore,
		directory: dir,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateRequest carries the fields of a grant action.
type CreateRequest struct {
	FacilityName string
	Kind         models.Kind
	Purpose      string
	ExpiresAt    *time.Time // nil = no expiry
}

// Create records a new grant. The caller must be the patient: the granting
// user's own patient profile becomes the record's subject and owner.
func (s *Service) Create(ctx context.Context, grantedBy string, req CreateRequest) (*models.Record, error) {
	if grantedBy == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing user context")
	}
	if !req.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("invalid consent kind: %s", req.Kind))
	}
	if req.FacilityName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "facility name required")
	}

	user, err := s.directory.GetUser(ctx, grantedBy)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read user")
	}
	if user.Role != directory.RolePatient {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only patients may grant consent")
	}

	patient, err := s.directory.GetPatientByUser(ctx, grantedBy)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "patient_record_not_found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read patient")
	}

	facility, err := s.directory.GetFacilityByName(ctx, req.FacilityName)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "facility_not_found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read facility")
	}

	now := time.Now()
	record, err := models.NewRecord(
		fmt.Sprintf("consent_%s", uuid.New().String()),
		req.Kind,
		patient.ID,
		facility.ID,
		grantedBy,
		req.Purpose,
		now,
		req.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to save consent")
	}

	s.logger.InfoContext(ctx, "consent_created",
		"consent_id", record.ID,
		"patient_id", record.PatientID,
		"facility_id", record.FacilityID,
		"kind", record.Kind,
	)
	if s.metrics != nil {
		s.metrics.IncrementConsentsCreated(string(record.Kind))
	}
	return record, nil
}

// Revoke flips a consent to revoked. Only the granting patient may revoke;
// any other requester gets unauthorized, never a silent no-op. Revoking an
// already-revoked record is idempotent in outcome.
func (s *Service) Revoke(ctx context.Context, consentID, requestingUser string) (*models.Record, error) {
	if requestingUser == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing user context")
	}

	record, err := s.store.Get(ctx, consentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "consent not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read consent")
	}

	if record.GrantedBy != requestingUser {
		s.logger.WarnContext(ctx, "revoke_rejected_not_owner",
			"consent_id", consentID,
			"requesting_user", requestingUser,
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the granting patient may revoke")
	}

	revoked, err := s.store.Revoke(ctx, consentID, time.Now())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to revoke consent")
	}

	s.logger.InfoContext(ctx, "consent_revoked",
		"consent_id", revoked.ID,
		"patient_id", revoked.PatientID,
		"facility_id", revoked.FacilityID,
	)
	if s.metrics != nil {
		s.metrics.IncrementConsentsRevoked(string(revoked.Kind))
	}
	return revoked, nil
}

// ListForPatient returns a patient's grants. The requester must be the
// patient's own account or an admin.
func (s *Service) ListForPatient(ctx context.Context, requestingUser, patientID string) ([]*models.Record, error) {
	if requestingUser == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing user context")
	}

	requester, err := s.directory.GetUser(ctx, requestingUser)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read user")
	}

	if requester.Role != directory.RoleAdmin {
		own, err := s.directory.GetPatientByUser(ctx, requestingUser)
		if err != nil || own.ID != patientID {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "patients may only list their own consents")
		}
	}

	records, err := s.store.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list consents")
	}
	return records, nil
}

// ListForWorkerFacility returns every grant at the requesting worker's own
// facility. Workers cannot list any other facility's grants.
func (s *Service) ListForWorkerFacility(ctx context.Context, workerUser string) ([]*models.Record, error) {
	if workerUser == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing user context")
	}

	worker, err := s.directory.GetWorkerByUser(ctx, workerUser)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "requester is not a healthcare worker")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read worker")
	}

	records, err := s.store.ListByFacility(ctx, worker.FacilityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list consents")
	}
	return records, nil
}
