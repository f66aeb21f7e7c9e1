package domain

import (
	"errors"
	"fmt"
)

// Caller-facing error taxonomy. Services wrap these with context; the HTTP
// layer matches them with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrGateway      = errors.New("bad gateway")
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrSessionExists = errors.New("session token already in use")

	ErrInvalidRole      = fmt.Errorf("%w: role must be ADMIN or USER", ErrBadRequest)
	ErrPasswordMismatch = fmt.Errorf("%w: password confirmation does not match", ErrBadRequest)
)
