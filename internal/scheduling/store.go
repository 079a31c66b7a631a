package scheduling

import (
	"context"

	"github.com/barberbook/barberbook/internal/schedule"
)

// AppointmentStore owns both appointment indices: the provider-facing
// slot-key index and the customer-facing index. Every mutation must leave
// the two in agreement; a dangling entry in only one index is an
// invariant violation surfaced as *InconsistencyError.
type AppointmentStore interface {
	// Create inserts under both indices. ErrSlotTaken when the slot key is
	// occupied, ErrCustomerAlreadyBooked when the customer already holds an
	// active appointment.
	Create(ctx context.Context, appt Appointment) error

	// Cancel removes the appointment from both indices and returns it.
	Cancel(ctx context.Context, provider schedule.ProviderID, id AppointmentID) (Appointment, error)

	// CancelByCustomer removes the customer's active appointment from both
	// indices and returns it.
	CancelByCustomer(ctx context.Context, customerID string) (Appointment, error)

	Get(ctx context.Context, provider schedule.ProviderID, id AppointmentID) (Appointment, error)
	GetByCustomer(ctx context.Context, customerID string) (Appointment, error)

	// Find lists a day's appointments ordered by day then time ascending.
	Find(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]Appointment, error)

	// Days lists the distinct days that currently hold appointments, for
	// the consistency auditor.
	Days(ctx context.Context, provider schedule.ProviderID) ([]schedule.Day, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
