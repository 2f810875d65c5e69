package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tattva-health/portal-service/internal/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/tattva-health/portal-service/session")

const DefaultCookieName = "tattva_session"

type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager creates, resolves and destroys sessions. It satisfies
// auth.PrincipalResolver.
type Manager struct {
	store  Store
	signer tokenSigner
	cfg    Config
	now    func() time.Time
}

var _ auth.PrincipalResolver = (*Manager)(nil)

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, cfg Config, opts ...ManagerOption) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	m := &Manager{
		store:  store,
		signer: tokenSigner{secret: []byte(cfg.Secret)},
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create stores a new session for pr and sets the session cookie on w. Any
// session r already carries is ended first, so one client never holds two
// live logins.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request, pr *auth.Principal) error {
	ctx, span := tracer.Start(r.Context(), "session.Create")
	defer span.End()
	span.SetAttributes(attribute.String("principal.kind", string(pr.Kind)))

	if raw := m.tokenFrom(r); raw != "" {
		if prev, err := m.signer.parse(raw); err == nil {
			if err := m.store.Delete(ctx, prev); err != nil && !errors.Is(err, ErrSessionNotFound) {
				span.SetStatus(codes.Error, "delete previous failed")
				return fmt.Errorf("failed to end previous session: %w", err)
			}
		}
	}

	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Principal: *pr,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(m.cfg.TTL).UTC(),
	}
	sess.Principal.SessionID = ""

	token, err := m.signer.sign(sess.ID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		span.SetStatus(codes.Error, "sign failed")
		return err
	}
	if err := m.store.Save(ctx, sess); err != nil {
		span.SetStatus(codes.Error, "save failed")
		return fmt.Errorf("failed to save session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	pr.SessionID = sess.ID
	span.SetStatus(codes.Ok, "created")
	return nil
}

// Resolve returns the principal of the request's session.
// It returns auth.ErrNoCredentials when the request carries no token.
func (m *Manager) Resolve(r *http.Request) (*auth.Principal, error) {
	raw := m.tokenFrom(r)
	if raw == "" {
		return nil, auth.ErrNoCredentials
	}

	id, err := m.signer.parse(raw)
	if err != nil {
		return nil, err
	}

	sess, err := m.store.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !m.now().Before(sess.ExpiresAt) {
		m.store.Delete(r.Context(), id)
		return nil, ErrSessionNotFound
	}

	pr := sess.Principal
	pr.SessionID = sess.ID
	return &pr, nil
}

// Destroy removes the request's session, if any, and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ctx, span := tracer.Start(ctx, "session.Destroy")
	defer span.End()

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	raw := m.tokenFrom(r)
	if raw == "" {
		return nil
	}
	id, err := m.signer.parse(raw)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	span.SetStatus(codes.Ok, "destroyed")
	return nil
}

// PurgeExpired drops sessions past their expiry from the store.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.PurgeExpired(ctx, m.now())
}

func (m *Manager) tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
