package otp

import "errors"

var (
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrPatientNotFound      = errors.New("patient not found, registration required")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired OTP")
)
