package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const principalKey ctxKey = "auth_principal"

var tracer = otel.Tracer("github.com/tattva-health/portal-service/auth")

// PrincipalResolver turns request credentials into a principal.
// It returns ErrNoCredentials when the request carries none.
type PrincipalResolver interface {
	Resolve(r *http.Request) (*Principal, error)
}

// MetricsRecorder interface for recording auth metrics
type MetricsRecorder interface {
	RecordAuthFailure(ctx context.Context, reason string)
}

// Middleware rejects requests without a valid session and injects the
// Principal into the request context.
func Middleware(resolver PrincipalResolver, metrics MetricsRecorder) func(http.Handler) http.Handler {
	return middleware(resolver, metrics, true)
}

// OptionalMiddleware injects the Principal when a valid session exists and
// lets anonymous requests through untouched.
func OptionalMiddleware(resolver PrincipalResolver, metrics MetricsRecorder) func(http.Handler) http.Handler {
	return middleware(resolver, metrics, false)
}

func middleware(resolver PrincipalResolver, metrics MetricsRecorder, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "auth.Middleware",
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			pr, err := resolver.Resolve(r.WithContext(ctx))
			if err != nil {
				reason := "invalid_session"
				if errors.Is(err, ErrNoCredentials) {
					reason = "missing_session"
				}
				span.SetAttributes(attribute.String("auth.outcome", reason))

				if !required {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}

				span.SetStatus(codes.Error, reason)
				if metrics != nil {
					metrics.RecordAuthFailure(ctx, reason)
				}
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			span.SetAttributes(
				attribute.String("principal.kind", string(pr.Kind)),
				attribute.String("principal.subject", pr.Subject()),
			)
			span.SetStatus(codes.Ok, "authenticated")

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, pr)))
		})
	}
}

// PermissionMetricsRecorder interface for recording permission check metrics
type PermissionMetricsRecorder interface {
	RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool)
}

// RequirePermission returns middleware that ensures the principal has permission.
func RequirePermission(per string, perms Permissions, metrics PermissionMetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := tracer.Start(r.Context(), "auth.RequirePermission",
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attribute.String("permission.required", per)),
			)
			defer span.End()

			pr, ok := FromContext(ctx)
			if !ok {
				span.SetStatus(codes.Error, "unauthenticated")
				if metrics != nil {
					metrics.RecordPermissionCheck(ctx, per, float64(time.Since(start).Microseconds())/1000, false)
				}
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			allowed := HasPermission(pr, per, perms)
			span.SetAttributes(
				attribute.Bool("permission.allowed", allowed),
				attribute.String("principal.kind", string(pr.Kind)),
			)
			if metrics != nil {
				metrics.RecordPermissionCheck(ctx, per, float64(time.Since(start).Microseconds())/1000, allowed)
			}

			if !allowed {
				span.SetStatus(codes.Error, "forbidden")
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}

			span.SetStatus(codes.Ok, "permission granted")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts Principal from context.
func FromContext(ctx context.Context) (*Principal, bool) {
	pr, ok := ctx.Value(principalKey).(*Principal)
	return pr, ok && pr != nil
}

// ContextWithPrincipal returns a copy of ctx carrying principal.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// HasPermission looks the principal's kind up in the permissions map.
func HasPermission(pr *Principal, permission string, perms Permissions) bool {
	for _, p := range perms[string(pr.Kind)] {
		if p == permission {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
