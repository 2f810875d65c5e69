package doctor

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid ID or PIN")
	ErrNotLoggedIn        = errors.New("no doctor session")
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrHospitalNotFound   = errors.New("hospital not found")
	ErrUnknownStrategy    = errors.New("unknown availability auth strategy")
)
