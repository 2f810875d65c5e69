package owner

import (
	"context"
	"errors"
	"testing"

	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/identity"
	"github.com/tattva-health/portal-service/internal/messaging"
	"github.com/tattva-health/portal-service/internal/testutil"
	"go.uber.org/zap"
)

// alice owns City Care (7) and has an account; bob owns Apollo (8) but has none.
func newOwnerFixture() *testutil.IdentityStore {
	store := testutil.NewIdentityStore()
	store.AddHospital(identity.Hospital{ID: 7, Name: "City Care"}, &identity.HospitalOwner{Username: "alice", Password: "secret"})
	store.AddHospital(identity.Hospital{ID: 8, Name: "Apollo"}, &identity.HospitalOwner{Username: "bob", Password: "hunter2"})
	store.AddAccount(identity.Account{ID: 3, Username: "alice"})
	return store
}

func TestService_Login(t *testing.T) {
	publisher := testutil.NewMockPublisher()
	svc := NewService(newOwnerFixture(), publisher, nil, zap.NewNop().Sugar())

	pr, hospital, err := svc.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if pr.Kind != auth.KindHospitalOwner || pr.Username != "alice" || pr.HospitalID != 7 || pr.AccountID != 3 {
		t.Errorf("Unexpected principal: %+v", pr)
	}
	if hospital.Name != "City Care" {
		t.Errorf("Expected City Care, got %s", hospital.Name)
	}
	publisher.AssertEventCount(t, messaging.EventOwnerLoggedIn, 1)
}

func TestService_LoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"wrong password", "alice", "nope", ErrInvalidCredentials},
		{"unknown owner", "mallory", "secret", ErrInvalidCredentials},
		{"empty password", "alice", "", ErrInvalidCredentials},
		{"missing account", "bob", "hunter2", ErrAccountMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := testutil.NewMockPublisher()
			svc := NewService(newOwnerFixture(), publisher, nil, zap.NewNop().Sugar())

			pr, _, err := svc.Login(context.Background(), tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if pr != nil {
				t.Errorf("Expected no principal, got %+v", pr)
			}
			publisher.AssertEventNotPublished(t, messaging.EventOwnerLoggedIn)
		})
	}
}
