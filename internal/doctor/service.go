package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/identity"
	"github.com/tattva-health/portal-service/internal/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/tattva-health/portal-service/doctor")

// Repository is the identity subset the doctor flows read.
type Repository interface {
	GetDoctor(ctx context.Context, id int64) (*identity.Doctor, error)
	GetDoctorByCredentials(ctx context.Context, id, pin int64) (*identity.Doctor, error)
	GetHospital(ctx context.Context, id int64) (*identity.Hospital, error)
}

// MetricsRecorder interface for recording login metrics
type MetricsRecorder interface {
	RecordLogin(ctx context.Context, kind, result string)
}

type Service struct {
	repo      Repository
	updater   AvailabilityUpdater
	publisher messaging.PublisherInterface
	metrics   MetricsRecorder
	logger    *zap.SugaredLogger
}

func NewService(repo Repository, updater AvailabilityUpdater, publisher messaging.PublisherInterface, metrics MetricsRecorder, logger *zap.SugaredLogger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		updater:   updater,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Login matches id and PIN together. Every mismatch is ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, id, pin int64) (*auth.Principal, error) {
	ctx, span := tracer.Start(ctx, "doctor.Login")
	defer span.End()

	d, err := s.repo.GetDoctorByCredentials(ctx, id, pin)
	if errors.Is(err, identity.ErrDoctorNotFound) {
		s.recordLogin(ctx, "invalid_credentials")
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.recordLogin(ctx, "error")
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}

	pr := &auth.Principal{
		Kind:       auth.KindDoctor,
		DoctorID:   d.ID,
		DoctorName: d.Name,
	}
	if d.AccountID != nil {
		pr.AccountID = *d.AccountID
	}

	s.recordLogin(ctx, "success")
	event := messaging.NewLoginEvent(messaging.EventDoctorLoggedIn, string(auth.KindDoctor), pr.Subject(), 0)
	if err := s.publisher.Publish(ctx, messaging.EventDoctorLoggedIn, event); err != nil {
		s.logger.Warnw("failed to publish event", "event", messaging.EventDoctorLoggedIn, "error", err)
	}

	span.SetAttributes(attribute.Int64("doctor.id", d.ID))
	span.SetStatus(codes.Ok, "logged in")
	return pr, nil
}

func (s *Service) recordLogin(ctx context.Context, result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(ctx, string(auth.KindDoctor), result)
	}
}

// UpdateAvailability stores available for the doctor the principal resolves
// to and returns the stored value.
func (s *Service) UpdateAvailability(ctx context.Context, pr *auth.Principal, available bool) (bool, error) {
	ctx, span := tracer.Start(ctx, "doctor.UpdateAvailability")
	defer span.End()

	doctorID, err := s.updater.UpdateAvailability(ctx, pr, available)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	event := messaging.DoctorAvailabilityChangedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventDoctorAvailabilityChanged),
		Data: messaging.DoctorAvailabilityChangedData{
			DoctorID:  doctorID,
			Available: available,
			ChangedAt: time.Now().UTC(),
		},
	}
	if err := s.publisher.Publish(ctx, messaging.EventDoctorAvailabilityChanged, event); err != nil {
		s.logger.Warnw("failed to publish event", "event", messaging.EventDoctorAvailabilityChanged, "error", err)
	}

	s.logger.Infow("doctor availability updated", "doctor_id", doctorID, "available", available)
	span.SetAttributes(attribute.Int64("doctor.id", doctorID), attribute.Bool("doctor.available", available))
	span.SetStatus(codes.Ok, "updated")
	return available, nil
}

func (s *Service) Profile(ctx context.Context, pr *auth.Principal) (*identity.Doctor, error) {
	if pr == nil || pr.Kind != auth.KindDoctor {
		return nil, ErrNotLoggedIn
	}
	d, err := s.repo.GetDoctor(ctx, pr.DoctorID)
	if errors.Is(err, identity.ErrDoctorNotFound) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	return d, nil
}

func (s *Service) Hospital(ctx context.Context, hospitalID int64) (*identity.Hospital, error) {
	h, err := s.repo.GetHospital(ctx, hospitalID)
	if errors.Is(err, identity.ErrHospitalNotFound) {
		return nil, ErrHospitalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hospital: %w", err)
	}
	return h, nil
}
