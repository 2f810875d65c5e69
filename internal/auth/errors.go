package auth

import (
	"errors"
	"net/http"
)

var (
	ErrNoCredentials         = errors.New("no session credentials presented")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrForbidden             = errors.New("access denied: not the authorized hospital owner")
	ErrMisconfiguredResource = errors.New("configuration error: hospital owner not defined")
	ErrHospitalNotFound      = errors.New("hospital not found")
)

// AuthorizationStatus maps an AuthorizeHospital error to an HTTP status and
// a client-safe message. ok is false for errors it does not know.
func AuthorizationStatus(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated", true
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "Access Denied: Not the authorized Hospital Owner.", true
	case errors.Is(err, ErrHospitalNotFound):
		return http.StatusNotFound, "Hospital not found", true
	case errors.Is(err, ErrMisconfiguredResource):
		return http.StatusInternalServerError, "Configuration Error: Hospital Owner not defined.", true
	default:
		return http.StatusInternalServerError, "Internal server error", false
	}
}
