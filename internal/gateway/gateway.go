package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"medgate/internal/audit"
	"medgate/internal/consent/evaluator"
	"medgate/internal/consent/models"
	consentstore "medgate/internal/consent/store"
	"medgate/internal/directory"
	"medgate/internal/platform/metrics"
	"medgate/internal/registry"
	dErrors "medgate/pkg/domain-errors"
)

// RegistryClient is the outbound lookup the gateway depends on.
type RegistryClient interface {
	Lookup(ctx context.Context, nationalID string) (*registry.Snapshot, error)
}

// Cipher decrypts the national ID stored against a cached patient row.
type Cipher interface {
	Decrypt(ciphertext string) (string, error)
}

// Request identifies the record a worker wants to reach. Exactly one of
// ConsentID and NationalID must be set.
type Request struct {
	ConsentID  string
	NationalID string

	SourceAddress string
	UserAgent     string
}

// PatientView is the demographic slice returned on an allowed access, taken
// from the registry snapshot rather than the local cache.
type PatientView struct {
	PatientID        string
	FirstName        string
	LastName         string
	DateOfBirth      time.Time
	Gender           string
	Phone            string
	Email            string
	Address          string
	EmergencyContact string
}

// Result is the outcome of one gated lookup. Denials carry the reason and
// nothing else.
type Result struct {
	Allowed bool
	Reason  evaluator.Reason
	Patient *PatientView
	Consent *models.Record
	LogID   string
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithMetrics sets the metrics instance for the gateway.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// Gateway runs the gated lookup sequence: resolve the caller and target,
// evaluate consent, write the audit entry, and only then release data.
// No evaluation is answered before its audit entry is durable.
type Gateway struct {
	directory directory.Store
	consents  consentstore.Store
	evaluator *evaluator.Evaluator
	recorder  *audit.Recorder
	registry  RegistryClient
	cipher    Cipher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(
	dir directory.Store,
	consents consentstore.Store,
	eval *evaluator.Evaluator,
	recorder *audit.Recorder,
	registryClient RegistryClient,
	cipher Cipher,
	logger *slog.Logger,
	opts ...Option,
) *Gateway {
	g := &Gateway{
		directory: dir,
		consents:  consents,
		evaluator: eval,
		recorder:  recorder,
		registry:  registryClient,
		cipher:    cipher,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// target is the resolved subject of a lookup before evaluation.
type target struct {
	patient  *directory.Patient
	snapshot *registry.Snapshot // set when the registry was consulted during resolution
}

// Lookup answers whether the calling worker may access the identified
// patient, and returns demographics only when consent allows it.
//
// Resolution failures (unknown caller, unknown target) are rejected before
// any consent question is asked and produce no audit entry. Once a
// (patient, facility) pair is evaluated, exactly one audit entry is
// written, and a failed write withholds the answer entirely.
var tracer = otel.Tracer("medgate/gateway")

func (g *Gateway) Lookup(ctx context.Context, workerUserID string, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "gateway.Lookup")
	defer span.End()

	start := time.Now()
	defer func() {
		g.metrics.ObserveEvaluationLatency(time.Since(start))
	}()

	if (req.ConsentID == "") == (req.NationalID == "") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "exactly one of consent_id and national_id is required")
	}

	worker, err := g.directory.GetWorkerByUser(ctx, workerUserID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "requester is not a healthcare worker")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to resolve worker")
	}

	tgt, err := g.resolveTarget(ctx, worker, req)
	if err != nil {
		return nil, err
	}

	verdict, err := g.evaluator.Evaluate(ctx, tgt.patient.ID, worker.FacilityID)
	if err != nil {
		return nil, err
	}
	g.metrics.IncrementEvaluation(verdictLabel(verdict.Allowed), string(verdict.Reason))
	span.SetAttributes(
		attribute.Bool("gateway.allowed", verdict.Allowed),
		attribute.String("gateway.reason", string(verdict.Reason)),
	)

	entry, err := g.recorder.Record(ctx, audit.RecordRequest{
		Action:        actionFor(verdict.Consent),
		Verdict:       auditVerdict(verdict.Allowed),
		Reason:        string(verdict.Reason),
		SourceAddress: req.SourceAddress,
		UserAgent:     req.UserAgent,
		PatientID:     tgt.patient.ID,
		WorkerID:      worker.ID,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Allowed: verdict.Allowed,
		Reason:  verdict.Reason,
		LogID:   entry.ID,
	}
	if !verdict.Allowed {
		g.logger.InfoContext(ctx, "access denied",
			"patient_id", tgt.patient.ID,
			"facility_id", worker.FacilityID,
			"reason", string(verdict.Reason))
		return result, nil
	}

	view, err := g.refresh(ctx, tgt)
	if err != nil {
		// The audit entry for the allowed evaluation stands.
		return nil, err
	}

	result.Patient = view
	result.Consent = verdict.Consent
	g.logger.InfoContext(ctx, "access allowed",
		"patient_id", tgt.patient.ID,
		"facility_id", worker.FacilityID,
		"consent_id", verdict.Consent.ID,
		"log_id", entry.ID)
	return result, nil
}

// resolveTarget maps the request onto a locally known patient. A consent
// reference only resolves when it belongs to the caller's facility, so a
// worker cannot probe another facility's grants.
func (g *Gateway) resolveTarget(ctx context.Context, worker *directory.Worker, req Request) (*target, error) {
	if req.ConsentID != "" {
		record, err := g.consents.Get(ctx, req.ConsentID)
		if err != nil {
			if errors.Is(err, consentstore.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "no_valid_consent_found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read consent")
		}
		if record.FacilityID != worker.FacilityID {
			return nil, dErrors.New(dErrors.CodeNotFound, "no_valid_consent_found")
		}
		patient, err := g.directory.GetPatient(ctx, record.PatientID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "no_valid_consent_found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read patient")
		}
		return &target{patient: patient}, nil
	}

	snapshot, err := g.registry.Lookup(ctx, req.NationalID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no_valid_consent_found")
		}
		return nil, err
	}
	patient, err := g.directory.GetPatient(ctx, snapshot.PatientID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no_valid_consent_found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read patient")
	}
	return &target{patient: patient, snapshot: snapshot}, nil
}

// refresh returns registry-fresh demographics for an allowed access and
// reconciles the local cache against them. When resolution already hit the
// registry, that snapshot is reused instead of a second call.
func (g *Gateway) refresh(ctx context.Context, tgt *target) (*PatientView, error) {
	snapshot := tgt.snapshot
	if snapshot == nil {
		nationalID, err := g.cipher.Decrypt(tgt.patient.NationalIDEncrypted)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decrypt national id")
		}
		snapshot, err = g.registry.Lookup(ctx, nationalID)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeTransport, "registry snapshot unavailable")
			}
			return nil, err
		}
	}

	if err := g.directory.UpdatePatientDemographics(ctx, tgt.patient.ID,
		snapshot.FirstName, snapshot.LastName, snapshot.DateOfBirth); err != nil {
		// Stale cache is tolerable; the response already carries fresh data.
		g.logger.WarnContext(ctx, "patient cache reconcile failed",
			"patient_id", tgt.patient.ID, "error", err)
	}

	return &PatientView{
		PatientID:        snapshot.PatientID,
		FirstName:        snapshot.FirstName,
		LastName:         snapshot.LastName,
		DateOfBirth:      snapshot.DateOfBirth,
		Gender:           snapshot.Gender,
		Phone:            snapshot.Phone,
		Email:            snapshot.Email,
		Address:          snapshot.Address,
		EmergencyContact: snapshot.EmergencyContact,
	}, nil
}

// actionFor maps a governing consent onto the audit action. A denial with
// no governing consent is logged as an attempted view.
func actionFor(record *models.Record) audit.Action {
	if record == nil {
		return audit.ActionView
	}
	switch record.Kind {
	case models.KindView:
		return audit.ActionView
	case models.KindShare:
		return audit.ActionShare
	default:
		return audit.ActionEdit
	}
}

func auditVerdict(allowed bool) audit.Verdict {
	if allowed {
		return audit.VerdictAllowed
	}
	return audit.VerdictDenied
}

func verdictLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
