package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/tattva-health/portal-service/internal/identity"
	"github.com/tattva-health/portal-service/internal/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/tattva-health/portal-service/directory")

var ErrHospitalNotFound = errors.New("hospital not found")

// Repository is the read side of the identity store used for browsing.
type Repository interface {
	ListHospitals(ctx context.Context, limit, offset int) ([]identity.Hospital, int, error)
	GetHospital(ctx context.Context, id int64) (*identity.Hospital, error)
	ListHospitalDoctors(ctx context.Context, hospitalID int64) ([]identity.Doctor, error)
}

// ServiceInterface defines the contract for directory operations
type ServiceInterface interface {
	ListHospitals(ctx context.Context, params pagination.Params) (*PaginatedHospitalListResponse, error)
	HospitalDoctors(ctx context.Context, hospitalID int64) (*HospitalDoctorsResponse, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListHospitals(ctx context.Context, params pagination.Params) (*PaginatedHospitalListResponse, error) {
	ctx, span := tracer.Start(ctx, "directory.ListHospitals")
	defer span.End()

	params.Validate()
	span.SetAttributes(attribute.Int("page", params.Page), attribute.Int("limit", params.Limit))

	hospitals, total, err := s.repo.ListHospitals(ctx, params.Limit, params.CalculateOffset())
	if err != nil {
		span.SetStatus(codes.Error, "list failed")
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}

	resp := &PaginatedHospitalListResponse{
		Hospitals:  make([]HospitalSummary, 0, len(hospitals)),
		Pagination: params.CalculateMeta(total),
	}
	for i := range hospitals {
		resp.Hospitals = append(resp.Hospitals, hospitalSummary(&hospitals[i]))
	}

	span.SetStatus(codes.Ok, "listed")
	return resp, nil
}

func (s *Service) HospitalDoctors(ctx context.Context, hospitalID int64) (*HospitalDoctorsResponse, error) {
	ctx, span := tracer.Start(ctx, "directory.HospitalDoctors")
	defer span.End()
	span.SetAttributes(attribute.Int64("hospital.id", hospitalID))

	hospital, err := s.repo.GetHospital(ctx, hospitalID)
	if errors.Is(err, identity.ErrHospitalNotFound) {
		span.SetStatus(codes.Error, "hospital not found")
		return nil, ErrHospitalNotFound
	}
	if err != nil {
		span.SetStatus(codes.Error, "hospital lookup failed")
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}

	doctors, err := s.repo.ListHospitalDoctors(ctx, hospitalID)
	if err != nil {
		span.SetStatus(codes.Error, "doctor lookup failed")
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	resp := &HospitalDoctorsResponse{
		Hospital: hospitalSummary(hospital),
		Doctors:  make([]DoctorSummary, 0, len(doctors)),
	}
	for _, d := range doctors {
		resp.Doctors = append(resp.Doctors, DoctorSummary{
			ID:            d.ID,
			Name:          d.Name,
			Specification: d.Specification,
			Available:     d.Available,
		})
	}

	span.SetStatus(codes.Ok, "listed")
	return resp, nil
}

func hospitalSummary(h *identity.Hospital) HospitalSummary {
	return HospitalSummary{ID: h.ID, Name: h.Name, Availability: h.Availability}
}
