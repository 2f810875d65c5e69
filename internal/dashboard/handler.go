package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/identity"
	"go.uber.org/zap"
)

// HospitalAuthorizer admits only the owner of a hospital.
type HospitalAuthorizer interface {
	AuthorizeHospital(ctx context.Context, pr *auth.Principal, hospitalID int64) (*identity.Hospital, error)
}

type Handler struct {
	service    *Service
	authorizer HospitalAuthorizer
	logger     *zap.SugaredLogger
}

func NewHandler(service *Service, authorizer HospitalAuthorizer, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, authorizer: authorizer, logger: logger}
}

func (h *Handler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["hospital_id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid hospital ID")
		return
	}

	pr, _ := auth.FromContext(r.Context())
	hospital, err := h.authorizer.AuthorizeHospital(r.Context(), pr, id)
	if err != nil {
		status, message, known := auth.AuthorizationStatus(err)
		if !known {
			h.logger.Errorw("hospital authorization failed", "hospital_id", id, "error", err)
		}
		respondError(w, status, message)
		return
	}

	data, err := h.service.Data(r.Context(), hospital)
	if err != nil {
		h.logger.Errorw("failed to build dashboard", "hospital_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
