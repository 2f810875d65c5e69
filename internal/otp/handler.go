package otp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tattva-health/portal-service/internal/auth"
	"go.uber.org/zap"
)

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

func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, "error", "Invalid JSON format")
		return
	}

	err := h.service.RequestCode(r.Context(), req.Phone)
	switch {
	case err == nil:
		respond(w, http.StatusOK, "success", "OTP sent successfully")
	case errors.Is(err, ErrInvalidPhone):
		respond(w, http.StatusBadRequest, "error", "Invalid phone number")
	case errors.Is(err, ErrPatientNotFound):
		respond(w, http.StatusForbidden, "error", "Patient not found. Registration required.")
	default:
		h.logger.Errorw("failed to issue code", "error", err)
		respond(w, http.StatusInternalServerError, "error", "Internal server error")
	}
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, "error", "Invalid JSON format")
		return
	}

	err := h.service.VerifyCode(r.Context(), req.Phone, req.SubmittedCode())
	if errors.Is(err, ErrInvalidOrExpiredCode) {
		respond(w, http.StatusUnauthorized, "error", "Invalid or expired OTP")
		return
	}
	if err != nil {
		h.logger.Errorw("failed to verify code", "error", err)
		respond(w, http.StatusInternalServerError, "error", "Internal server error")
		return
	}

	pr := &auth.Principal{Kind: auth.KindPatient, Phone: NormalizePhone(req.Phone)}
	if err := h.sessions.Create(w, r, pr); err != nil {
		h.logger.Errorw("failed to create patient session", "error", err)
		respond(w, http.StatusInternalServerError, "error", "Internal server error")
		return
	}

	respond(w, http.StatusOK, "success", "OTP verified")
}

func (h *Handler) CheckPatientExists(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondExists(w, http.StatusBadRequest, ExistsResponse{Message: "Invalid JSON format"})
		return
	}

	exists, err := h.service.CheckPatientExists(r.Context(), req.Phone)
	if errors.Is(err, ErrInvalidPhone) {
		respondExists(w, http.StatusBadRequest, ExistsResponse{Message: "Invalid phone number"})
		return
	}
	if err != nil {
		h.logger.Errorw("failed to check patient", "error", err)
		respondExists(w, http.StatusInternalServerError, ExistsResponse{Message: "Internal server error"})
		return
	}
	respondExists(w, http.StatusOK, ExistsResponse{Exists: exists})
}

func respond(w http.ResponseWriter, status int, state, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(StatusResponse{Status: state, Message: message})
}

func respondExists(w http.ResponseWriter, status int, body ExistsResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
