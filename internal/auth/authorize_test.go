package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/tattva-health/portal-service/internal/identity"
)

type mockOwnership struct {
	GetHospitalFunc          func(ctx context.Context, id int64) (*identity.Hospital, error)
	GetOwnerByHospitalIDFunc func(ctx context.Context, hospitalID int64) (*identity.HospitalOwner, error)
}

func (m *mockOwnership) GetHospital(ctx context.Context, id int64) (*identity.Hospital, error) {
	return m.GetHospitalFunc(ctx, id)
}

func (m *mockOwnership) GetOwnerByHospitalID(ctx context.Context, hospitalID int64) (*identity.HospitalOwner, error) {
	return m.GetOwnerByHospitalIDFunc(ctx, hospitalID)
}

// hospitals 7 and 8 exist; alice owns 7, bob owns 8, 9 has no owner.
func newOwnershipFixture() *mockOwnership {
	return &mockOwnership{
		GetHospitalFunc: func(ctx context.Context, id int64) (*identity.Hospital, error) {
			switch id {
			case 7, 8, 9:
				return &identity.Hospital{ID: id, Name: "City Care"}, nil
			}
			return nil, identity.ErrHospitalNotFound
		},
		GetOwnerByHospitalIDFunc: func(ctx context.Context, hospitalID int64) (*identity.HospitalOwner, error) {
			switch hospitalID {
			case 7:
				return &identity.HospitalOwner{HospitalID: 7, Username: "alice"}, nil
			case 8:
				return &identity.HospitalOwner{HospitalID: 8, Username: "bob"}, nil
			}
			return nil, identity.ErrOwnerNotFound
		},
	}
}

func TestAuthorizeHospital(t *testing.T) {
	alice := &Principal{Kind: KindHospitalOwner, Username: "alice", HospitalID: 7}

	tests := []struct {
		name       string
		principal  *Principal
		hospitalID int64
		wantErr    error
	}{
		{"owner of hospital", alice, 7, nil},
		{"owner of another hospital", alice, 8, ErrForbidden},
		{"unknown hospital", alice, 42, ErrHospitalNotFound},
		{"hospital without owner", alice, 9, ErrMisconfiguredResource},
		{"no principal", nil, 7, ErrUnauthenticated},
		{"doctor principal", &Principal{Kind: KindDoctor, DoctorID: 1, HospitalID: 7, Username: "alice"}, 7, ErrForbidden},
		{"patient principal", &Principal{Kind: KindPatient, Phone: "9876543210"}, 7, ErrForbidden},
		{"username mismatch", &Principal{Kind: KindHospitalOwner, Username: "mallory", HospitalID: 7}, 7, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &mockAuthMetrics{}
			authz := NewAuthorizer(newOwnershipFixture(), metrics)

			hospital, err := authz.AuthorizeHospital(context.Background(), tt.principal, tt.hospitalID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil {
				if hospital == nil || hospital.ID != tt.hospitalID {
					t.Errorf("Expected hospital %d, got %+v", tt.hospitalID, hospital)
				}
				return
			}
			if hospital != nil {
				t.Errorf("Expected no hospital on error, got %+v", hospital)
			}
		})
	}
}

func TestAuthorizeHospital_LookupFailure(t *testing.T) {
	fixture := newOwnershipFixture()
	fixture.GetOwnerByHospitalIDFunc = func(ctx context.Context, hospitalID int64) (*identity.HospitalOwner, error) {
		return nil, errors.New("connection reset")
	}

	authz := NewAuthorizer(fixture, nil)
	_, err := authz.AuthorizeHospital(context.Background(), &Principal{Kind: KindHospitalOwner, Username: "alice", HospitalID: 7}, 7)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if errors.Is(err, ErrForbidden) || errors.Is(err, ErrMisconfiguredResource) {
		t.Errorf("Expected a plain lookup error, got %v", err)
	}
}

func TestAuthorizeHospital_RecordsForbidden(t *testing.T) {
	metrics := &mockAuthMetrics{}
	authz := NewAuthorizer(newOwnershipFixture(), metrics)

	authz.AuthorizeHospital(context.Background(), &Principal{Kind: KindHospitalOwner, Username: "alice", HospitalID: 7}, 8)

	if len(metrics.failures) != 1 || metrics.failures[0] != "forbidden" {
		t.Errorf("Expected forbidden failure recorded, got %v", metrics.failures)
	}
}

func TestAuthorizationStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantKnown  bool
	}{
		{ErrUnauthenticated, 401, true},
		{ErrForbidden, 403, true},
		{ErrHospitalNotFound, 404, true},
		{ErrMisconfiguredResource, 500, true},
		{errors.New("boom"), 500, false},
	}
	for _, tt := range tests {
		status, msg, ok := AuthorizationStatus(tt.err)
		if status != tt.wantStatus || ok != tt.wantKnown || msg == "" {
			t.Errorf("%v: got %d %q %v", tt.err, status, msg, ok)
		}
	}
}
