// Package common defines sentinel errors shared by the client's repositories
// and services. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound is returned by local repositories when a row is missing.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken is returned when a session token cannot be parsed or
	// carries no subject.
	ErrInvalidToken = errors.New("invalid token")
)
