package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/messaging"
	"go.uber.org/zap"
)

// Destroyer ends the session carried by a request.
type Destroyer interface {
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

type Handler struct {
	sessions  Destroyer
	publisher messaging.PublisherInterface
	logger    *zap.SugaredLogger
}

func NewHandler(sessions Destroyer, publisher messaging.PublisherInterface, logger *zap.SugaredLogger) *Handler {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Handler{sessions: sessions, publisher: publisher, logger: logger}
}

// Logout always succeeds for the client; an anonymous logout is a no-op.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	pr, ok := auth.FromContext(r.Context())

	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.logger.Errorw("failed to destroy session", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Logout failed"})
		return
	}

	if ok {
		event := messaging.NewLoginEvent(messaging.EventSessionEnded, string(pr.Kind), pr.Subject(), pr.HospitalID)
		if err := h.publisher.Publish(r.Context(), messaging.EventSessionEnded, event); err != nil {
			h.logger.Warnw("failed to publish event", "event", messaging.EventSessionEnded, "error", err)
		}
		h.logger.Infow("session ended", "subject", pr.Subject())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success", "message": "Logged out", "redirect_url": "/"})
}
