package match

import (
	"errors"
	"fmt"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

var (
	// ErrScoreUnderflow is returned when a decrement would take a score below zero.
	ErrScoreUnderflow = errors.New("score cannot go below zero")
	// ErrInvalidDelta is returned for score changes other than +1 and -1.
	ErrInvalidDelta = errors.New("score delta must be +1 or -1")
	// ErrInvariant is returned when a computed state breaks a set invariant.
	ErrInvariant = errors.New("set invariant violated")
)

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets callers outside this package match validation failures with
// models.ErrInvalidArgument.
func (e *ValidationError) Is(target error) bool {
	return target == models.ErrInvalidArgument
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
