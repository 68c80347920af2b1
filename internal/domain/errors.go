package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrConcurrentUpdate = errors.New("order was modified concurrently")
)

// ValidationError reports malformed or missing input. It is always raised
// before any state is mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError reports a guard violation on one of the order axes.
// The order is left unchanged.
type InvalidTransitionError struct {
	Axis   string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid %s transition: %s -> %s", e.Axis, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func newTransitionError(axis, from, to, reason string) *InvalidTransitionError {
	return &InvalidTransitionError{Axis: axis, From: from, To: to, Reason: reason}
}

// AuthorizationError never says whether the order exists.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "not permitted"
	}
	return e.Message
}

var errNotPermitted = &AuthorizationError{Message: "not permitted"}

// ErrNotPermitted returns the shared authorization failure.
func ErrNotPermitted() *AuthorizationError { return errNotPermitted }

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsInvalidTransition(err error) bool {
	var t *InvalidTransitionError
	return errors.As(err, &t)
}

func IsAuthorizationError(err error) bool {
	var a *AuthorizationError
	return errors.As(err, &a)
}
