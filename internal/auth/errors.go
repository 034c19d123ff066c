package auth

import "errors"

var (
	// ErrMissingToken is returned when the request carries no bearer token
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned when the token cannot be verified
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoSecret is returned when JWT auth is selected without a signing secret
	ErrNoSecret = errors.New("JWT secret not configured")
)
