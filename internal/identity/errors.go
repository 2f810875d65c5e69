package identity

import "errors"

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrAmbiguousPhone   = errors.New("phone number is shared by more than one patient")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrHospitalNotFound = errors.New("hospital not found")
	ErrOwnerNotFound    = errors.New("hospital owner not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicatePhone   = errors.New("phone number already registered")
)
