package patient

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tattva-health/portal-service/internal/auth"
	"go.uber.org/zap"
)

type Handler struct {
	service ServiceInterface
	logger  *zap.SugaredLogger
}

func NewHandler(service ServiceInterface, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Me returns the profile of the patient whose phone the session holds.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	pr, ok := auth.FromContext(r.Context())
	if !ok || pr.Kind != auth.KindPatient || pr.Phone == "" {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Status: "error", Message: "Not logged in"})
		return
	}

	profile, err := h.service.Profile(r.Context(), pr.Phone)
	if errors.Is(err, ErrPatientNotFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Status: "error", Message: "Patient not found"})
		return
	}
	if err != nil {
		h.logger.Errorw("failed to load patient profile", "subject", pr.Subject(), "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, ProfileResponse{Status: "success", Patient: profile})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
