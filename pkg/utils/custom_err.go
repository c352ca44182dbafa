package utils

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotPayable       = errors.New("course is not payable")
	ErrAlreadyPurchased = errors.New("course already purchased")
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyProcessed = errors.New("order already processed")
	ErrAmountMismatch   = errors.New("amount mismatch")
	ErrProviderMismatch = errors.New("provider mismatch")
	ErrNotCancellable   = errors.New("order is not cancellable")
	ErrUnknownProvider  = errors.New("unknown payment provider")
	ErrGatewayFailure   = errors.New("gateway failure")
	ErrGatewayTimeout   = errors.New("gateway timeout, outcome unknown")
	ErrDatabaseError    = errors.New("database error")
)

// ValidationError collects every missing or malformed field of a request so
// the caller can fix them all in one round trip.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Fields, ", "))
}

func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}
