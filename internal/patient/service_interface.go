package patient

import "context"

// ServiceInterface defines the contract for patient business logic operations
type ServiceInterface interface {
	Profile(ctx context.Context, phone string) (*Profile, error)
}
