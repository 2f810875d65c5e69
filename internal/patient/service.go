package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/tattva-health/portal-service/internal/identity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/tattva-health/portal-service/patient")

// Repository is the identity lookup the patient service needs.
type Repository interface {
	GetPatientByPhone(ctx context.Context, phone string) (*identity.Patient, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Profile loads the patient that owns phone. A session can outlive the
// patient row, so a miss is ErrPatientNotFound rather than a fault.
func (s *Service) Profile(ctx context.Context, phone string) (*Profile, error) {
	ctx, span := tracer.Start(ctx, "patient.Profile")
	defer span.End()

	p, err := s.repo.GetPatientByPhone(ctx, phone)
	if errors.Is(err, identity.ErrPatientNotFound) {
		span.SetStatus(codes.Error, "patient not found")
		return nil, ErrPatientNotFound
	}
	if err != nil {
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	span.SetStatus(codes.Ok, "found")
	return profileFrom(p), nil
}
