package directory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	respond "medgate/internal/transport/http/json"
	"medgate/internal/transport/http/shared"
	dErrors "medgate/pkg/domain-errors"
)

// Handler exposes the read-only facility directory.
type Handler struct {
	logger *slog.Logger
	store  Store
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		store:  store,
	}
}

// Register registers the directory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/facilities", h.handleListFacilities)
}

type facilityResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	LicenseNumber string `json:"license_number,omitempty"`
	Location      string `json:"location,omitempty"`
}

func (h *Handler) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	facilities, err := h.store.ListFacilities(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list facilities", "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list facilities"))
		return
	}

	out := make([]facilityResponse, 0, len(facilities))
	for _, f := range facilities {
		out = append(out, facilityResponse{
			ID:            f.ID,
			Name:          f.Name,
			Type:          string(f.Type),
			LicenseNumber: f.LicenseNumber,
			Location:      f.Location,
		})
	}

	respond.WriteJSON(w, http.StatusOK, out)
}
