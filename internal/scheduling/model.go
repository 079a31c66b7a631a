package scheduling

import (
	"time"

	"github.com/barberbook/barberbook/internal/schedule"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

// Event types written to the audit log on every engine mutation.
const (
	EventHoursPublished         = "HOURS_PUBLISHED"
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventConsistencyViolation   = "CONSISTENCY_VIOLATION"
)

// AppointmentID is derived from the slot key (day_HH:MM), unique per
// provider. A reschedule therefore produces a new ID.
type AppointmentID string

func NewAppointmentID(day schedule.Day, t schedule.TimeOfDay) AppointmentID {
	return AppointmentID(schedule.Slot{Day: day, Time: t}.Key())
}

// Appointment is indexed twice: by provider slot key and by customer. At
// most one active appointment may exist per customer at a time.
type Appointment struct {
	ID         AppointmentID
	ProviderID schedule.ProviderID
	CustomerID string
	Day        schedule.Day
	Time       schedule.TimeOfDay
	Notes      string
	Status     Status
	CreatedAt  time.Time
}

func (a Appointment) Slot() schedule.Slot {
	return schedule.Slot{Day: a.Day, Time: a.Time}
}

// Confirmation is the user-facing outcome of a successful Book/Reschedule.
type Confirmation struct {
	AppointmentID AppointmentID
	Slot          schedule.Slot
}

// EventLog is an audit record. Best-effort: failing to write one never
// fails the operation it describes.
type EventLog struct {
	EventType     string
	AppointmentID AppointmentID
	Payload       []byte
	CreatedAt     time.Time
}
