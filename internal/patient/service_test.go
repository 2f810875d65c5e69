package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/tattva-health/portal-service/internal/identity"
)

type mockRepository struct {
	getPatientByPhoneFunc func(ctx context.Context, phone string) (*identity.Patient, error)
}

func (m *mockRepository) GetPatientByPhone(ctx context.Context, phone string) (*identity.Patient, error) {
	return m.getPatientByPhoneFunc(ctx, phone)
}

func asha() *identity.Patient {
	return &identity.Patient{ID: 1, AbhaID: 91001, Name: "Asha", BloodGroup: "B+", Age: 34, Phone: "9876543210"}
}

func TestProfile_Success(t *testing.T) {
	var gotPhone string
	svc := NewService(&mockRepository{
		getPatientByPhoneFunc: func(ctx context.Context, phone string) (*identity.Patient, error) {
			gotPhone = phone
			return asha(), nil
		},
	})

	profile, err := svc.Profile(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if gotPhone != "9876543210" {
		t.Errorf("Expected lookup by 9876543210, got %s", gotPhone)
	}
	if profile.Name != "Asha" || profile.AbhaID != 91001 || profile.BloodGroup != "B+" {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}

func TestProfile_NotFound(t *testing.T) {
	svc := NewService(&mockRepository{
		getPatientByPhoneFunc: func(ctx context.Context, phone string) (*identity.Patient, error) {
			return nil, identity.ErrPatientNotFound
		},
	})

	if _, err := svc.Profile(context.Background(), "9000000000"); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected ErrPatientNotFound, got %v", err)
	}
}

func TestProfile_RepositoryError(t *testing.T) {
	svc := NewService(&mockRepository{
		getPatientByPhoneFunc: func(ctx context.Context, phone string) (*identity.Patient, error) {
			return nil, identity.ErrAmbiguousPhone
		},
	})

	_, err := svc.Profile(context.Background(), "9876543210")
	if err == nil || errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Expected wrapped lookup error, got %v", err)
	}
	if !errors.Is(err, identity.ErrAmbiguousPhone) {
		t.Errorf("Expected cause to be kept, got %v", err)
	}
}
