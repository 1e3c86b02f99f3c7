// Package common defines shared constants and errors used across the
// server layers of cloudnotes. Callers should use errors.Is to match the
// sentinel values and errors.As to extract a *Error.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Auth errors (invalid, malformed or foreign-signed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
