package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medgate/internal/consent/models"
	"medgate/internal/consent/service"
	"medgate/internal/platform/middleware"
	respond "medgate/internal/transport/http/json"
	"medgate/internal/transport/http/shared"
	dErrors "medgate/pkg/domain-errors"
)

// Service defines the consent lifecycle operations the handler exposes.
type Service interface {
	Create(ctx context.Context, grantedBy string, req service.CreateRequest) (*models.Record, error)
	Revoke(ctx context.Context, consentID, requestingUser string) (*models.Record, error)
	ListForPatient(ctx context.Context, requestingUser, patientID string) ([]*models.Record, error)
	ListForWorkerFacility(ctx context.Context, workerUser string) ([]*models.Record, error)
}

// Handler handles consent lifecycle endpoints.
type Handler struct {
	logger  *slog.Logger
	consent Service
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		consent: consent,
	}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/consents", h.handleCreate)
	r.Get("/consents/{patientRef}", h.handleListForPatient)
	r.Patch("/consents/{consentID}/revoke", h.handleRevoke)
	r.Get("/facility-consents", h.handleListForFacility)
}

// createRequest is the wire shape for granting consent.
type createRequest struct {
	FacilityName string `json:"facility_name"`
	Kind         string `json:"kind"`
	Purpose      string `json:"purpose"`
	ExpiresAt    string `json:"expires_at,omitempty"` // RFC 3339, absent = no expiry
}

// consentResponse is the wire shape for a consent record.
type consentResponse struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Status     string  `json:"status"`
	Purpose    string  `json:"purpose,omitempty"`
	PatientID  string  `json:"patient_id"`
	FacilityID string  `json:"facility_id"`
	GrantedAt  *string `json:"granted_at,omitempty"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
	RevokedAt  *string `json:"revoked_at,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID := middleware.GetUserID(ctx)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode create consent request",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expires_at must be RFC 3339"))
			return
		}
		expiresAt = &parsed
	}

	record, err := h.consent.Create(ctx, userID, service.CreateRequest{
		FacilityName: req.FacilityName,
		Kind:         models.Kind(req.Kind),
		Purpose:      req.Purpose,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create consent",
			"request_id", requestID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusCreated, toResponse(record))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	consentID := chi.URLParam(r, "consentID")
	userID := middleware.GetUserID(ctx)

	record, err := h.consent.Revoke(ctx, consentID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to revoke consent",
			"request_id", middleware.GetRequestID(ctx),
			"consent_id", consentID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, toResponse(record))
}

func (h *Handler) handleListForPatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientRef := chi.URLParam(r, "patientRef")
	userID := middleware.GetUserID(ctx)

	records, err := h.consent.ListForPatient(ctx, userID, patientRef)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, toResponses(records))
}

func (h *Handler) handleListForFacility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	records, err := h.consent.ListForWorkerFacility(ctx, userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, toResponses(records))
}

func toResponse(record *models.Record) consentResponse {
	return consentResponse{
		ID:         record.ID,
		Kind:       string(record.Kind),
		Status:     string(record.EffectiveStatus(time.Now())),
		Purpose:    record.Purpose,
		PatientID:  record.PatientID,
		FacilityID: record.FacilityID,
		GrantedAt:  formatTime(record.GrantedAt),
		ExpiresAt:  formatTime(record.ExpiresAt),
		RevokedAt:  formatTime(record.RevokedAt),
	}
}

func toResponses(records []*models.Record) []consentResponse {
	out := make([]consentResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResponse(record))
	}
	return out
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
