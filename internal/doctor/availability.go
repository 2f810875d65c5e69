package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/identity"
)

// Availability auth strategies. A deployment wires exactly one.
const (
	StrategyDoctorSession = "doctor_session"
	StrategyLinkedAccount = "linked_account"
)

// AvailabilityStore is the identity subset the updaters need.
type AvailabilityStore interface {
	GetDoctorByAccountID(ctx context.Context, accountID int64) (*identity.Doctor, error)
	SetDoctorAvailability(ctx context.Context, id int64, available bool) error
}

// AvailabilityUpdater resolves which doctor a principal may update and
// stores the new flag. It returns the doctor id that was changed.
type AvailabilityUpdater interface {
	UpdateAvailability(ctx context.Context, pr *auth.Principal, available bool) (int64, error)
}

// DoctorSessionUpdater trusts the doctor id held by a DOCTOR session.
type DoctorSessionUpdater struct {
	store AvailabilityStore
}

func (u *DoctorSessionUpdater) UpdateAvailability(ctx context.Context, pr *auth.Principal, available bool) (int64, error) {
	if pr == nil || pr.Kind != auth.KindDoctor || pr.DoctorID == 0 {
		return 0, ErrNotLoggedIn
	}
	if err := u.store.SetDoctorAvailability(ctx, pr.DoctorID, available); err != nil {
		if errors.Is(err, identity.ErrDoctorNotFound) {
			return 0, ErrDoctorNotFound
		}
		return 0, fmt.Errorf("failed to update availability: %w", err)
	}
	return pr.DoctorID, nil
}

// LinkedAccountUpdater updates the doctor linked to the session's system account.
type LinkedAccountUpdater struct {
	store AvailabilityStore
}

func (u *LinkedAccountUpdater) UpdateAvailability(ctx context.Context, pr *auth.Principal, available bool) (int64, error) {
	if pr == nil || pr.AccountID == 0 {
		return 0, ErrNotLoggedIn
	}
	d, err := u.store.GetDoctorByAccountID(ctx, pr.AccountID)
	if errors.Is(err, identity.ErrDoctorNotFound) {
		return 0, ErrDoctorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load linked doctor: %w", err)
	}
	if err := u.store.SetDoctorAvailability(ctx, d.ID, available); err != nil {
		if errors.Is(err, identity.ErrDoctorNotFound) {
			return 0, ErrDoctorNotFound
		}
		return 0, fmt.Errorf("failed to update availability: %w", err)
	}
	return d.ID, nil
}

func NewAvailabilityUpdater(strategy string, store AvailabilityStore) (AvailabilityUpdater, error) {
	switch strategy {
	case StrategyDoctorSession, "":
		return &DoctorSessionUpdater{store: store}, nil
	case StrategyLinkedAccount:
		return &LinkedAccountUpdater{store: store}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
