package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	exporterTimeout        = 5 * time.Second
	defaultMetricsInterval = 30 * time.Second
	defaultTraceRatio      = 0.1
)

type Config struct {
	ServiceName      string
	ServiceNamespace string
	ServiceVersion   string
	Environment      string
	OTLPEndpoint     string
	// always_on (default), always_off, traceidratio or traceidratio:<ratio>
	TracesSampler   string
	MetricsInterval time.Duration
}

// Provider owns the installed tracer and meter providers. Either may be nil
// when its exporter could not be created.
type Provider struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	logger         *zap.SugaredLogger
}

// InitProvider installs global tracer and meter providers exporting over
// OTLP/gRPC. An empty endpoint or a failing exporter leaves the otel no-op
// globals in place; startup never fails on telemetry alone.
func InitProvider(ctx context.Context, cfg Config, logger *zap.SugaredLogger) (*Provider, error) {
	p := &Provider{logger: logger}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.OTLPEndpoint == "" {
		logger.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, telemetry export disabled")
		return p, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceNamespace(cfg.ServiceNamespace),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	dial := grpc.WithTransportCredentials(insecure.NewCredentials())

	if tp, err := newTracerProvider(ctx, cfg, res, dial); err != nil {
		logger.Warnw("tracing disabled", "endpoint", cfg.OTLPEndpoint, "error", err)
	} else {
		otel.SetTracerProvider(tp)
		p.TracerProvider = tp
	}

	if mp, err := newMeterProvider(ctx, cfg, res, dial); err != nil {
		logger.Warnw("metrics export disabled", "endpoint", cfg.OTLPEndpoint, "error", err)
	} else {
		otel.SetMeterProvider(mp)
		p.MeterProvider = mp
	}

	logger.Infow("✓ Telemetry initialized",
		"endpoint", cfg.OTLPEndpoint,
		"tracing", p.TracerProvider != nil,
		"metrics", p.MeterProvider != nil,
	)
	return p, nil
}

// Sampler maps a sampler name to an sdk sampler. Unknown names sample
// everything.
func Sampler(name string) trace.Sampler {
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		ratio := defaultTraceRatio
		if v, err := strconv.ParseFloat(arg, 64); err == nil && v >= 0 && v <= 1 {
			ratio = v
		}
		return trace.ParentBased(trace.TraceIDRatioBased(ratio))
	default:
		return trace.AlwaysSample()
	}
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource, dial grpc.DialOption) (*trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithDialOption(dial),
		otlptracegrpc.WithTimeout(exporterTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	return trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSampler(Sampler(cfg.TracesSampler)),
		trace.WithBatcher(exporter, trace.WithBatchTimeout(exporterTimeout)),
	), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource, dial grpc.DialOption) (*metric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithDialOption(dial),
		otlpmetricgrpc.WithTimeout(exporterTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = defaultMetricsInterval
	}
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
	), nil
}

// Shutdown flushes pending spans and metrics.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if len(errs) > 0 {
		p.logger.Errorw("telemetry shutdown incomplete", "errors", errs)
	}
	return errors.Join(errs...)
}
