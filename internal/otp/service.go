package otp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tattva-health/portal-service/internal/gateway"
	"github.com/tattva-health/portal-service/internal/logging"
	"github.com/tattva-health/portal-service/internal/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/tattva-health/portal-service/otp")

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// ValidPhone reports whether phone is a bare 10-digit number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizePhone returns phone in the form codes are keyed by.
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

// PatientLookup answers whether a phone belongs to a registered patient.
type PatientLookup interface {
	PatientExistsByPhone(ctx context.Context, phone string) (bool, error)
}

// Dispatcher delivers a code to a phone.
type Dispatcher interface {
	Dispatch(ctx context.Context, phone, code string) error
}

// MetricsRecorder interface for recording code metrics
type MetricsRecorder interface {
	RecordCodeIssued(ctx context.Context)
	RecordCodeVerification(ctx context.Context, result string)
	RecordDispatch(ctx context.Context, outcome string)
}

type Service struct {
	patients   PatientLookup
	store      CodeStore
	dispatcher Dispatcher
	logger     *zap.SugaredLogger

	generator       Generator
	publisher       messaging.PublisherInterface
	metrics         MetricsRecorder
	now             func() time.Time
	ttl             time.Duration
	dispatchTimeout time.Duration
	logCodes        bool

	inflight sync.WaitGroup
}

type Option func(*Service)

func WithGenerator(g Generator) Option { return func(s *Service) { s.generator = g } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithPublisher(p messaging.PublisherInterface) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m MetricsRecorder) Option { return func(s *Service) { s.metrics = m } }

// WithTTL sets the validity window advertised in events. The store enforces it.
func WithTTL(ttl time.Duration) Option { return func(s *Service) { s.ttl = ttl } }

func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Service) { s.dispatchTimeout = d }
}

// WithCodeLogging writes issued codes to the debug log. Development only.
func WithCodeLogging(enabled bool) Option { return func(s *Service) { s.logCodes = enabled } }

func NewService(patients PatientLookup, store CodeStore, dispatcher Dispatcher, logger *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{
		patients:        patients,
		store:           store,
		dispatcher:      dispatcher,
		logger:          logger,
		generator:       RandomGenerator{},
		publisher:       messaging.NopPublisher{},
		now:             time.Now,
		ttl:             5 * time.Minute,
		dispatchTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestCode issues a fresh code for a registered phone and hands it to the
// dispatcher in the background. Delivery problems never fail the request.
func (s *Service) RequestCode(ctx context.Context, phone string) error {
	ctx, span := tracer.Start(ctx, "otp.RequestCode")
	defer span.End()

	phone = NormalizePhone(phone)
	if !ValidPhone(phone) {
		span.SetStatus(codes.Error, "invalid phone")
		return ErrInvalidPhone
	}

	exists, err := s.patients.PatientExistsByPhone(ctx, phone)
	if err != nil {
		span.SetStatus(codes.Error, "patient lookup failed")
		return fmt.Errorf("failed to look up patient: %w", err)
	}
	if !exists {
		span.SetStatus(codes.Error, "unknown patient")
		return ErrPatientNotFound
	}

	code, err := s.generator.Generate()
	if err != nil {
		span.SetStatus(codes.Error, "code generation failed")
		return err
	}

	issuedAt := s.now()
	if err := s.store.Put(ctx, phone, code, issuedAt); err != nil {
		span.SetStatus(codes.Error, "code store failed")
		return fmt.Errorf("failed to store code: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCodeIssued(ctx)
	}
	if s.logCodes {
		s.logger.Debugw("issued one-time code", "phone", phone, "code", code)
	}

	s.dispatch(phone, code)

	event := messaging.CodeRequestedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventCodeRequested),
		Data: messaging.CodeRequestedData{
			PhoneMasked: logging.MaskPhone(phone),
			RequestedAt: issuedAt.UTC(),
			ExpiresAt:   issuedAt.Add(s.ttl).UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, messaging.EventCodeRequested, event); err != nil {
		s.logger.Warnw("failed to publish event", "event", messaging.EventCodeRequested, "error", err)
	}

	span.SetStatus(codes.Ok, "code issued")
	return nil
}

// dispatch runs detached from the request context so a finished response
// does not cancel delivery.
func (s *Service) dispatch(phone, code string) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		ctx, span := tracer.Start(ctx, "otp.Dispatch")
		defer span.End()

		err := s.dispatcher.Dispatch(ctx, phone, code)
		outcome := dispatchOutcome(err)
		span.SetAttributes(attribute.String("dispatch.outcome", outcome))
		if s.metrics != nil {
			s.metrics.RecordDispatch(ctx, outcome)
		}
		if err != nil {
			span.SetStatus(codes.Error, outcome)
			s.logger.Warnw("code dispatch failed",
				"phone", logging.MaskPhone(phone),
				"outcome", outcome,
				"error", err,
			)
			return
		}
		s.logger.Infow("code dispatched", "phone", logging.MaskPhone(phone))
	}()
}

func dispatchOutcome(err error) string {
	var rejected *gateway.RejectedError
	var transport *gateway.TransportError
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, gateway.ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &rejected):
		return "rejected"
	case errors.As(err, &transport):
		return "transport_error"
	default:
		return "failed"
	}
}

// Wait blocks until every background dispatch has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// VerifyCode consumes the outstanding code for phone. Every miss returns
// ErrInvalidOrExpiredCode.
func (s *Service) VerifyCode(ctx context.Context, phone, code string) error {
	ctx, span := tracer.Start(ctx, "otp.VerifyCode")
	defer span.End()

	phone = NormalizePhone(phone)
	if !ValidPhone(phone) || code == "" {
		s.recordVerification(ctx, "rejected")
		span.SetStatus(codes.Error, "rejected")
		return ErrInvalidOrExpiredCode
	}

	ok, err := s.store.TakeIfValid(ctx, phone, code, s.now())
	if err != nil {
		s.recordVerification(ctx, "error")
		span.SetStatus(codes.Error, "code store failed")
		return fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		s.recordVerification(ctx, "rejected")
		span.SetStatus(codes.Error, "rejected")
		return ErrInvalidOrExpiredCode
	}

	s.recordVerification(ctx, "success")
	event := messaging.NewLoginEvent(messaging.EventPatientLoggedIn, "PATIENT", logging.MaskPhone(phone), 0)
	if err := s.publisher.Publish(ctx, messaging.EventPatientLoggedIn, event); err != nil {
		s.logger.Warnw("failed to publish event", "event", messaging.EventPatientLoggedIn, "error", err)
	}

	span.SetStatus(codes.Ok, "verified")
	return nil
}

func (s *Service) recordVerification(ctx context.Context, result string) {
	if s.metrics != nil {
		s.metrics.RecordCodeVerification(ctx, result)
	}
}

func (s *Service) CheckPatientExists(ctx context.Context, phone string) (bool, error) {
	phone = NormalizePhone(phone)
	if !ValidPhone(phone) {
		return false, ErrInvalidPhone
	}
	exists, err := s.patients.PatientExistsByPhone(ctx, phone)
	if err != nil {
		return false, fmt.Errorf("failed to look up patient: %w", err)
	}
	return exists, nil
}
