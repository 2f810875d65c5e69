package doctor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tattva-health/portal-service/internal/auth"
	"go.uber.org/zap"
)

const DashboardPath = "/doctor/dashboard/"

// SessionCreator opens a session for a freshly authenticated principal.
type SessionCreator interface {
	Create(w http.ResponseWriter, r *http.Request, pr *auth.Principal) error
}

type Handler struct {
	service  ServiceInterface
	sessions SessionCreator
	logger   *zap.SugaredLogger
}

func NewHandler(service ServiceInterface, sessions SessionCreator, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, sessions: sessions, logger: logger}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Status: "error", Message: "Invalid JSON format"})
		return
	}
	if !req.DocID.Set || !req.PIN.Set {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Status: "error", Message: "Invalid ID or PIN"})
		return
	}

	pr, err := h.service.Login(r.Context(), req.DocID.Value, req.PIN.Value)
	if errors.Is(err, ErrInvalidCredentials) {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Status: "error", Message: "Invalid ID or PIN"})
		return
	}
	if err != nil {
		h.logger.Errorw("doctor login failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "Internal server error"})
		return
	}

	if err := h.sessions.Create(w, r, pr); err != nil {
		h.logger.Errorw("failed to create doctor session", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Status:      "success",
		DoctorName:  pr.DoctorName,
		RedirectURL: DashboardPath,
	})
}

// UpdateAvailability checks the session before it reads the body, so an
// anonymous caller gets 401 whatever it sends.
func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	pr, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Status: "error", Message: "Not logged in"})
		return
	}

	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Status: "error", Message: "Invalid JSON format"})
		return
	}
	if req.IsAvailable == nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Status: "error", Message: "is_available must be true or false"})
		return
	}

	available, err := h.service.UpdateAvailability(r.Context(), pr, *req.IsAvailable)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, AvailabilityResponse{Status: "success", IsAvailable: available})
	case errors.Is(err, ErrNotLoggedIn):
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Status: "error", Message: "Not logged in"})
	case errors.Is(err, ErrDoctorNotFound):
		respondJSON(w, http.StatusNotFound, ErrorResponse{Status: "error", Message: "Doctor profile not found"})
	default:
		h.logger.Errorw("failed to update availability", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "Internal server error"})
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	pr, _ := auth.FromContext(r.Context())

	d, err := h.service.Profile(r.Context(), pr)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, ProfileResponse{
			DoctorID:      d.ID,
			DoctorName:    d.Name,
			Specification: d.Specification,
			Available:     d.Available,
		})
	case errors.Is(err, ErrNotLoggedIn):
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Status: "error", Message: "Not logged in"})
	case errors.Is(err, ErrDoctorNotFound):
		respondJSON(w, http.StatusNotFound, ErrorResponse{Status: "error", Message: "Doctor profile not found"})
	default:
		h.logger.Errorw("failed to load doctor profile", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Status: "error", Message: "Internal server error"})
	}
}

func (h *Handler) Hospital(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["hospital_id"], 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid hospital ID"})
		return
	}

	hospital, err := h.service.Hospital(r.Context(), id)
	if errors.Is(err, ErrHospitalNotFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("Hospital with ID %d not found", id)})
		return
	}
	if err != nil {
		h.logger.Errorw("failed to load hospital", "hospital_id", id, "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	respondJSON(w, http.StatusOK, HospitalResponse{HospitalID: hospital.ID, HospitalName: hospital.Name})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
