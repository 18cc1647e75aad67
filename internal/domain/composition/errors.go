// internal/domain/composition/errors.go
package composition

import (
	"errors"
	"fmt"
)

// ValidationError is a locally detected, pre-submission failure. It blocks
// the action and its message is meant for inline display.
type ValidationError struct {
	Message string
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PartialSubmissionError is returned when the sequential per-school
// submission loop fails after some partitions have already been committed
// server-side. The committed prefix is reported exactly; nothing is rolled
// back.
type PartialSubmissionError struct {
	FailedSchoolID   uint
	FailedSchoolName string
	Committed        []SaleResult
	Err              error
}

func (e *PartialSubmissionError) Error() string {
	if len(e.Committed) == 0 {
		return fmt.Sprintf("sale submission for school %q failed: %v", e.FailedSchoolName, e.Err)
	}
	return fmt.Sprintf("sale submission for school %q failed after %d sale(s) were already created: %v",
		e.FailedSchoolName, len(e.Committed), e.Err)
}

func (e *PartialSubmissionError) Unwrap() error {
	return e.Err
}
