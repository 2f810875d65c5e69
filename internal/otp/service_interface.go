package otp

import "context"

// ServiceInterface defines the contract for the code service
type ServiceInterface interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) error
	CheckPatientExists(ctx context.Context, phone string) (bool, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
