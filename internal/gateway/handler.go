package gateway

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medgate/internal/platform/middleware"
	respond "medgate/internal/transport/http/json"
	"medgate/internal/transport/http/shared"
)

// Handler exposes the gated lookup endpoint.
type Handler struct {
	logger  *slog.Logger
	gateway *Gateway
}

func NewHandler(gw *Gateway, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		gateway: gw,
	}
}

// Register registers the lookup route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/consents/check", h.handleCheck)
}

// checkResponse is the wire shape of a lookup verdict. Patient and consent
// fields are present only on allowed accesses.
type checkResponse struct {
	Allowed bool             `json:"allowed"`
	Reason  string           `json:"reason"`
	LogID   string           `json:"log_id"`
	Patient *patientResponse `json:"patient,omitempty"`
	Consent *consentSummary  `json:"consent,omitempty"`
}

type patientResponse struct {
	PatientID        string `json:"patient_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Gender           string `json:"gender,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

type consentSummary struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Purpose   string `json:"purpose,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	result, err := h.gateway.Lookup(ctx, userID, Request{
		ConsentID:     r.URL.Query().Get("consent_id"),
		NationalID:    r.URL.Query().Get("national_id"),
		SourceAddress: clientAddress(r),
		UserAgent:     r.UserAgent(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "lookup rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	resp := checkResponse{
		Allowed: result.Allowed,
		Reason:  string(result.Reason),
		LogID:   result.LogID,
	}
	if result.Patient != nil {
		resp.Patient = &patientResponse{
			PatientID:        result.Patient.PatientID,
			FirstName:        result.Patient.FirstName,
			LastName:         result.Patient.LastName,
			Gender:           result.Patient.Gender,
			Phone:            result.Patient.Phone,
			Email:            result.Patient.Email,
			Address:          result.Patient.Address,
			EmergencyContact: result.Patient.EmergencyContact,
		}
		if !result.Patient.DateOfBirth.IsZero() {
			resp.Patient.DateOfBirth = result.Patient.DateOfBirth.Format("2006-01-02")
		}
	}
	if result.Consent != nil {
		resp.Consent = &consentSummary{
			ID:      result.Consent.ID,
			Kind:    string(result.Consent.Kind),
			Purpose: result.Consent.Purpose,
		}
		if result.Consent.ExpiresAt != nil {
			resp.Consent.ExpiresAt = result.Consent.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}

	status := http.StatusOK
	if !result.Allowed {
		status = http.StatusForbidden
	}
	respond.WriteJSON(w, status, resp)
}

// clientAddress strips the port from the remote address when present.
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
