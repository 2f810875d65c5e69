package directory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tattva-health/portal-service/internal/pagination"
	"go.uber.org/zap"
)

type Handler struct {
	service ServiceInterface
	logger  *zap.SugaredLogger
}

func NewHandler(service ServiceInterface, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ListHospitals serves GET /api/hospitals?page=&limit=.
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListHospitals(r.Context(), pagination.ParseParams(r))
	if err != nil {
		h.logger.Errorw("failed to list hospitals", "error", err)
		respondError(w, http.StatusInternalServerError, "fetch_failed", "Failed to list hospitals")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) HospitalDoctors(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid hospital ID")
		return
	}

	resp, err := h.service.HospitalDoctors(r.Context(), id)
	if errors.Is(err, ErrHospitalNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "Hospital not found")
		return
	}
	if err != nil {
		h.logger.Errorw("failed to list hospital doctors", "hospital_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "fetch_failed", "Failed to list doctors")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}
