package owner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/identity"
	"go.uber.org/zap"
)

// SessionCreator opens a session for a freshly authenticated principal.
type SessionCreator interface {
	Create(w http.ResponseWriter, r *http.Request, pr *auth.Principal) error
}

// HospitalAuthorizer admits only the owner of a hospital.
type HospitalAuthorizer interface {
	AuthorizeHospital(ctx context.Context, pr *auth.Principal, hospitalID int64) (*identity.Hospital, error)
}

// LoginService authenticates hospital owners.
type LoginService interface {
	Login(ctx context.Context, username, password string) (*auth.Principal, *identity.Hospital, error)
}

var _ LoginService = (*Service)(nil)

type Handler struct {
	service    LoginService
	sessions   SessionCreator
	authorizer HospitalAuthorizer
	logger     *zap.SugaredLogger
}

func NewHandler(service LoginService, sessions SessionCreator, authorizer HospitalAuthorizer, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, sessions: sessions, authorizer: authorizer, logger: logger}
}

// DashboardPath is where a logged-in owner is sent.
func DashboardPath(hospitalID int64) string {
	return fmt.Sprintf("/accounts/dashboard/admin/%d/", hospitalID)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, LoginResponse{Message: "Invalid JSON format"})
		return
	}

	pr, hospital, err := h.service.Login(r.Context(), req.LoginID(), req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, LoginResponse{Message: "Invalid ID or Password."})
		return
	case errors.Is(err, ErrAccountMissing):
		respondJSON(w, http.StatusInternalServerError, LoginResponse{Message: "Owner account found, but session user is missing."})
		return
	case err != nil:
		h.logger.Errorw("owner login failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, LoginResponse{Message: "Internal server error"})
		return
	}

	if err := h.sessions.Create(w, r, pr); err != nil {
		h.logger.Errorw("failed to create owner session", "error", err)
		respondJSON(w, http.StatusInternalServerError, LoginResponse{Message: "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Message:     "Facility Access Granted: " + hospital.Name,
		RedirectURL: DashboardPath(hospital.ID),
	})
}

// Dashboard describes the admin dashboard of a hospital to its owner.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["hospital_id"], 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Invalid hospital ID"})
		return
	}

	pr, _ := auth.FromContext(r.Context())
	hospital, err := h.authorizer.AuthorizeHospital(r.Context(), pr, id)
	if err != nil {
		status, message, known := auth.AuthorizationStatus(err)
		if !known {
			h.logger.Errorw("hospital authorization failed", "hospital_id", id, "error", err)
		}
		respondJSON(w, status, map[string]string{"status": "error", "message": message})
		return
	}

	respondJSON(w, http.StatusOK, DashboardResponse{
		HospitalID:    hospital.ID,
		HospitalName:  hospital.Name,
		OwnerUsername: pr.Username,
	})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
