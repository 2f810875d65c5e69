package doctor

import (
	"context"

	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/identity"
)

// ServiceInterface defines the contract for the doctor service
type ServiceInterface interface {
	Login(ctx context.Context, id, pin int64) (*auth.Principal, error)
	UpdateAvailability(ctx context.Context, pr *auth.Principal, available bool) (bool, error)
	Profile(ctx context.Context, pr *auth.Principal) (*identity.Doctor, error)
	Hospital(ctx context.Context, hospitalID int64) (*identity.Hospital, error)
}

var _ ServiceInterface = (*Service)(nil)
