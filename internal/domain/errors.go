package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrUnknownModel  = errors.New("unknown model")
	ErrResponseShape = errors.New("unexpected response shape")
	ErrProviderCall  = errors.New("provider call failed")
)

// ValidationError reports malformed or missing input. It is always raised
// before any provider call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError is a shorthand for &ValidationError{...}.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UnknownModelError is returned when a caller selects a provider key that is
// not part of the registered set.
type UnknownModelError struct {
	Key   string
	Known []string
}

func (e *UnknownModelError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown model %q", e.Key)
	}
	return fmt.Sprintf("unknown model %q (known: %s)", e.Key, strings.Join(e.Known, ", "))
}

func (e *UnknownModelError) Is(target error) bool { return target == ErrUnknownModel }

// ResponseShapeError signals a successful provider response that carried no
// discoverable asset URL.
type ResponseShapeError struct {
	Model string
	Keys  []string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("%s: no asset url in response (keys: %s)", e.Model, strings.Join(e.Keys, ", "))
}

func (e *ResponseShapeError) Is(target error) bool { return target == ErrResponseShape }

// ProviderCallError is returned once the retry budget for a provider call is
// exhausted. Err is the last underlying failure.
type ProviderCallError struct {
	Model    string
	Attempts int
	Err      error
	Trace    string
}

func (e *ProviderCallError) Error() string {
	return fmt.Sprintf("%s: call failed after %d attempt(s): %v", e.Model, e.Attempts, e.Err)
}

func (e *ProviderCallError) Unwrap() error { return e.Err }

func (e *ProviderCallError) Is(target error) bool { return target == ErrProviderCall }

// Truncate cuts msg at limit bytes, on a rune boundary, and marks the cut with
// an ellipsis.
func Truncate(msg string, limit int) string {
	if limit <= 0 || len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !isRuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
