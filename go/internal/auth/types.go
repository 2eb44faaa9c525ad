package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 32
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned for a missing, unknown or expired session.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrEmailTaken is returned by CreateUser for a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError reports a credential field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == models.ErrInvalidArgument
}

// Session is an opaque bearer token bound to one user.
type Session struct {
	Token     uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Credentials is a stored user plus its password hash.
type Credentials struct {
	User         models.User
	PasswordHash []byte
}
