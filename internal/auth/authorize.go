package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tattva-health/portal-service/internal/identity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HospitalOwnership is the identity lookup the authorizer needs.
type HospitalOwnership interface {
	GetHospital(ctx context.Context, id int64) (*identity.Hospital, error)
	GetOwnerByHospitalID(ctx context.Context, hospitalID int64) (*identity.HospitalOwner, error)
}

// Authorizer decides whether a principal may act on a hospital's resources.
type Authorizer struct {
	hospitals HospitalOwnership
	metrics   MetricsRecorder
}

func NewAuthorizer(hospitals HospitalOwnership, metrics MetricsRecorder) *Authorizer {
	return &Authorizer{hospitals: hospitals, metrics: metrics}
}

// AuthorizeHospital grants access only to the owner of hospitalID and returns
// the hospital on success.
//
// Errors: ErrUnauthenticated without a principal, ErrHospitalNotFound for an
// unknown hospital, ErrMisconfiguredResource for a hospital with no owner,
// ErrForbidden for anyone else.
func (a *Authorizer) AuthorizeHospital(ctx context.Context, pr *Principal, hospitalID int64) (*identity.Hospital, error) {
	ctx, span := tracer.Start(ctx, "auth.AuthorizeHospital")
	defer span.End()
	span.SetAttributes(attribute.Int64("hospital.id", hospitalID))

	if pr == nil {
		a.fail(ctx, "unauthenticated")
		span.SetStatus(codes.Error, "unauthenticated")
		return nil, ErrUnauthenticated
	}

	hospital, err := a.hospitals.GetHospital(ctx, hospitalID)
	if errors.Is(err, identity.ErrHospitalNotFound) {
		span.SetStatus(codes.Error, "hospital not found")
		return nil, ErrHospitalNotFound
	}
	if err != nil {
		span.SetStatus(codes.Error, "hospital lookup failed")
		return nil, fmt.Errorf("failed to load hospital: %w", err)
	}

	owner, err := a.hospitals.GetOwnerByHospitalID(ctx, hospitalID)
	if errors.Is(err, identity.ErrOwnerNotFound) {
		span.SetStatus(codes.Error, "hospital has no owner")
		return nil, ErrMisconfiguredResource
	}
	if err != nil {
		span.SetStatus(codes.Error, "owner lookup failed")
		return nil, fmt.Errorf("failed to load hospital owner: %w", err)
	}

	if pr.Kind != KindHospitalOwner || pr.HospitalID != hospitalID || pr.Username != owner.Username {
		a.fail(ctx, "forbidden")
		span.SetStatus(codes.Error, "forbidden")
		return nil, ErrForbidden
	}

	span.SetStatus(codes.Ok, "authorized")
	return hospital, nil
}

func (a *Authorizer) fail(ctx context.Context, reason string) {
	if a.metrics != nil {
		a.metrics.RecordAuthFailure(ctx, reason)
	}
}
