package owner

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid ID or password")
	ErrAccountMissing     = errors.New("owner account found, but session user is missing")
)
