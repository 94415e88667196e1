package audit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medgate/internal/directory"
	"medgate/internal/platform/middleware"
	respond "medgate/internal/transport/http/json"
	"medgate/internal/transport/http/shared"
	dErrors "medgate/pkg/domain-errors"
)

// Directory is the identity slice the handler needs to resolve who a
// caller is allowed to read logs about.
type Directory interface {
	GetPatient(ctx context.Context, patientID string) (*directory.Patient, error)
	GetPatientByUser(ctx context.Context, userID string) (*directory.Patient, error)
	GetWorkerByUser(ctx context.Context, userID string) (*directory.Worker, error)
}

// Handler exposes the access-log read endpoints.
type Handler struct {
	logger    *slog.Logger
	recorder  *Recorder
	directory Directory
}

func NewHandler(recorder *Recorder, dir Directory, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		recorder:  recorder,
		directory: dir,
	}
}

// Register registers the access-log routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/access-logs/{userRef}", h.handleListForSubject)
}

// RegisterAdmin registers the admin-only routes. The caller is expected to
// mount these behind a role check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/access-logs", h.handleListAll)
}

type entryResponse struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	Verdict       string `json:"verdict"`
	Reason        string `json:"reason"`
	Timestamp     string `json:"timestamp"`
	SourceAddress string `json:"source_address,omitempty"`
	ClientInfo    string `json:"client_info,omitempty"`
	PatientID     string `json:"patient_id"`
	WorkerID      string `json:"worker_id"`
}

// handleListForSubject returns the trail about one subject. Patients read
// their own trail, workers their own, admins anyone's.
func (h *Handler) handleListForSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userRef := chi.URLParam(r, "userRef")
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)

	entries, err := h.listForSubject(ctx, userID, role, userRef)
	if err != nil {
		h.logger.WarnContext(ctx, "access log listing rejected",
			"request_id", middleware.GetRequestID(ctx),
			"user_ref", userRef,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, toEntryResponses(entries))
}

func (h *Handler) listForSubject(ctx context.Context, userID, role, userRef string) ([]*Entry, error) {
	switch directory.Role(role) {
	case directory.RoleAdmin:
		if _, err := h.directory.GetPatient(ctx, userRef); err == nil {
			return h.recorder.ListByPatient(ctx, userRef)
		} else if !errors.Is(err, directory.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to resolve subject")
		}
		return h.recorder.ListByWorker(ctx, userRef)

	case directory.RolePatient:
		patient, err := h.directory.GetPatientByUser(ctx, userID)
		if err != nil || patient.ID != userRef {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "patients may only read their own access logs")
		}
		return h.recorder.ListByPatient(ctx, userRef)

	case directory.RoleWorker:
		worker, err := h.directory.GetWorkerByUser(ctx, userID)
		if err != nil || worker.ID != userRef {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "workers may only read their own access logs")
		}
		return h.recorder.ListByWorker(ctx, userRef)
	}

	return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown role")
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.recorder.ListAll(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, toEntryResponses(entries))
}

func toEntryResponses(entries []*Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:            e.ID,
			Action:        string(e.Action),
			Verdict:       string(e.Verdict),
			Reason:        e.Reason,
			Timestamp:     e.Timestamp.UTC().Format(time.RFC3339),
			SourceAddress: e.SourceAddress,
			ClientInfo:    e.ClientInfo,
			PatientID:     e.PatientID,
			WorkerID:      e.WorkerID,
		})
	}
	return out
}
