package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medgate/internal/platform/metrics"
	dErrors "medgate/pkg/domain-errors"
)

// Recorder writes access-log entries and is the only component allowed to
// stamp their timestamps. A failed write is a hard error for the caller:
// the evaluation whose entry could not be written must not be answered.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type RecorderOption func(*Recorder)

func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func NewRecorder(store Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordRequest carries the caller-supplied parts of an entry. Timestamp and
// ID are assigned here, not by callers.
type RecordRequest struct {
	Action        Action
	Verdict       Verdict
	Reason        string
	SourceAddress string
	UserAgent     string
	PatientID     string
	WorkerID      string
}

// Record persists one entry. The write uses a detached context so a caller
// hanging up mid-request cannot suppress the audit trail.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (*Entry, error) {
	entry := &Entry{
		ID:            "log_" + uuid.NewString(),
		Action:        req.Action,
		Verdict:       req.Verdict,
		Reason:        req.Reason,
		Timestamp:     r.now().UTC(),
		SourceAddress: req.SourceAddress,
		ClientInfo:    DescribeClient(req.UserAgent),
		PatientID:     req.PatientID,
		WorkerID:      req.WorkerID,
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.store.Append(writeCtx, entry); err != nil {
		r.metrics.IncrementAuditWriteFailure()
		r.logger.Error("audit write failed",
			"patient_id", req.PatientID,
			"worker_id", req.WorkerID,
			"verdict", string(req.Verdict),
			"error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeAuditWrite, "audit_write_failed")
	}

	r.metrics.IncrementAuditWrite()
	r.logger.Info("access logged",
		"log_id", entry.ID,
		"action", string(entry.Action),
		"verdict", string(entry.Verdict),
		"reason", entry.Reason,
		"patient_id", entry.PatientID,
		"worker_id", entry.WorkerID)

	return entry, nil
}

func (r *Recorder) ListByWorker(ctx context.Context, workerID string) ([]*Entry, error) {
	entries, err := r.store.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "listing access logs")
	}
	return entries, nil
}

func (r *Recorder) ListByPatient(ctx context.Context, patientID string) ([]*Entry, error) {
	entries, err := r.store.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "listing access logs")
	}
	return entries, nil
}

func (r *Recorder) ListAll(ctx context.Context) ([]*Entry, error) {
	entries, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "listing access logs")
	}
	return entries, nil
}
