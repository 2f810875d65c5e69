package owner

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/identity"
	"github.com/tattva-health/portal-service/internal/messaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/tattva-health/portal-service/owner")

// Repository is the identity subset owner login reads.
type Repository interface {
	GetOwnerByUsername(ctx context.Context, username string) (*identity.HospitalOwner, error)
	GetAccountByUsername(ctx context.Context, username string) (*identity.Account, error)
	GetHospital(ctx context.Context, id int64) (*identity.Hospital, error)
}

// MetricsRecorder interface for recording login metrics
type MetricsRecorder interface {
	RecordLogin(ctx context.Context, kind, result string)
}

type Service struct {
	repo      Repository
	publisher messaging.PublisherInterface
	metrics   MetricsRecorder
	logger    *zap.SugaredLogger
}

func NewService(repo Repository, publisher messaging.PublisherInterface, metrics MetricsRecorder, logger *zap.SugaredLogger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher, metrics: metrics, logger: logger}
}

// Login authenticates a hospital owner and returns the session principal
// together with the owned hospital. An unknown username and a wrong password
// both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*auth.Principal, *identity.Hospital, error) {
	ctx, span := tracer.Start(ctx, "owner.Login")
	defer span.End()

	o, err := s.repo.GetOwnerByUsername(ctx, username)
	if errors.Is(err, identity.ErrOwnerNotFound) {
		s.fail(ctx, span, "invalid_credentials")
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		s.fail(ctx, span, "error")
		return nil, nil, fmt.Errorf("failed to look up owner: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(o.Password), []byte(password)) != 1 {
		s.fail(ctx, span, "invalid_credentials")
		return nil, nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetAccountByUsername(ctx, o.Username)
	if errors.Is(err, identity.ErrAccountNotFound) {
		s.fail(ctx, span, "account_missing")
		s.logger.Errorw("hospital owner has no system account", "username", o.Username, "hospital_id", o.HospitalID)
		return nil, nil, ErrAccountMissing
	}
	if err != nil {
		s.fail(ctx, span, "error")
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}

	hospital, err := s.repo.GetHospital(ctx, o.HospitalID)
	if err != nil {
		s.fail(ctx, span, "error")
		return nil, nil, fmt.Errorf("failed to load owned hospital: %w", err)
	}

	pr := &auth.Principal{
		Kind:       auth.KindHospitalOwner,
		AccountID:  account.ID,
		Username:   o.Username,
		HospitalID: o.HospitalID,
	}

	if s.metrics != nil {
		s.metrics.RecordLogin(ctx, string(auth.KindHospitalOwner), "success")
	}
	event := messaging.NewLoginEvent(messaging.EventOwnerLoggedIn, string(auth.KindHospitalOwner), pr.Subject(), o.HospitalID)
	if err := s.publisher.Publish(ctx, messaging.EventOwnerLoggedIn, event); err != nil {
		s.logger.Warnw("failed to publish event", "event", messaging.EventOwnerLoggedIn, "error", err)
	}

	span.SetAttributes(attribute.Int64("hospital.id", o.HospitalID))
	span.SetStatus(codes.Ok, "logged in")
	return pr, hospital, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, result string) {
	span.SetStatus(codes.Error, result)
	if s.metrics != nil {
		s.metrics.RecordLogin(ctx, string(auth.KindHospitalOwner), result)
	}
}
