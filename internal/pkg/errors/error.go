package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal server error")
	ErrBadRequest   = errors.New("bad request")
)

// Billing state-machine errors
var (
	ErrAlreadyExists       = errors.New("record already exists")
	ErrPlanInactive        = errors.New("plan is not active")
	ErrNotActive           = errors.New("subscription is not active")
	ErrPaymentNotDue       = errors.New("payment is not due yet")
	ErrIncorrectAmount     = errors.New("attached deposit must match plan amount")
	ErrInsufficientDeposit = errors.New("attached deposit is too small")
	ErrInvalidToken        = errors.New("invalid token address")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
