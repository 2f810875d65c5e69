package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tattva-health/portal-service"

// Metrics holds all custom metrics for the service
type Metrics struct {
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	CodesIssuedTotal        metric.Int64Counter
	CodeVerificationsTotal  metric.Int64Counter
	GatewayDispatchTotal    metric.Int64Counter
	RateLimitedTotal        metric.Int64Counter
	LoginsTotal             metric.Int64Counter
	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram
}

// InitMetrics registers every instrument on the global meter provider.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.HTTPRequestsTotal, "http_server_requests_total", "Total number of HTTP requests", "{request}"},
		{&m.CodesIssuedTotal, "otp_codes_issued_total", "One-time codes issued", "{code}"},
		{&m.CodeVerificationsTotal, "otp_verifications_total", "One-time code verification attempts by result", "{attempt}"},
		{&m.GatewayDispatchTotal, "gateway_dispatch_total", "Messaging gateway dispatches by outcome", "{message}"},
		{&m.RateLimitedTotal, "rate_limited_requests_total", "Requests rejected by the rate limiter", "{request}"},
		{&m.LoginsTotal, "logins_total", "Login attempts by principal kind and result", "{attempt}"},
		{&m.AuthFailuresTotal, "auth_failures_total", "Total number of authentication failures", "{failure}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
	}

	m.HTTPDurationMs, err = meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.PermissionCheckDuration, err = meter.Float64Histogram(
		"permission_check_duration_ms",
		metric.WithDescription("Permission check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPDurationMs.Record(ctx, durationMs, attrs)
}

func (m *Metrics) RecordCodeIssued(ctx context.Context) {
	m.CodesIssuedTotal.Add(ctx, 1)
}

// RecordCodeVerification records a verification attempt; result is
// "success", "rejected" or "error".
func (m *Metrics) RecordCodeVerification(ctx context.Context, result string) {
	m.CodeVerificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

// RecordDispatch records a messaging gateway outcome.
func (m *Metrics) RecordDispatch(ctx context.Context, outcome string) {
	m.GatewayDispatchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordRateLimited(ctx context.Context, route string) {
	m.RateLimitedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http_route", route),
	))
}

func (m *Metrics) RecordLogin(ctx context.Context, kind, result string) {
	m.LoginsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("principal_kind", kind),
		attribute.String("result", result),
	))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordPermissionCheck records a permission check duration metric
func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}
