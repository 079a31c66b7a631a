package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrProviderNotFound      = errors.New("unknown provider")
	ErrSlotTaken             = errors.New("slot already has an appointment")
	ErrCustomerAlreadyBooked = errors.New("customer already has an active appointment")
	ErrSlotNoLongerAvailable = errors.New("slot is no longer available")
	ErrSlotBeingBooked       = errors.New("slot is currently being booked, please retry")
	ErrAppointmentNotFound   = errors.New("appointment not found")
)

// ValidationError rejects malformed input before any store is touched.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// InconsistencyError means the denormalized copies of appointment state
// disagree, or a compensating action failed and left them disagreeing. It
// is never expected in correct operation: it aborts the operation with
// diagnostic detail instead of attempting silent repair.
type InconsistencyError struct {
	Op     string
	Detail string
	Cause  error
}

func (e *InconsistencyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("consistency violation in %s: %s: %v", e.Op, e.Detail, e.Cause)
	}
	return fmt.Sprintf("consistency violation in %s: %s", e.Op, e.Detail)
}

func (e *InconsistencyError) Unwrap() error { return e.Cause }
