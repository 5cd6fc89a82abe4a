// Package common defines shared constants and sentinel errors used across
// the pixelstudio server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorForbidden        = errors.New("forbidden")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")

	// Request authentication errors.
	ErrMissingToken   = errors.New("missing token")
	ErrIdentityGone   = errors.New("identity no longer exists")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("refresh failed")
)
