package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrNotConfigured      = errors.New("no account configured")
)
