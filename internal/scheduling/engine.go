package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/barberbook/barberbook/internal/availability"
	redisclient "github.com/barberbook/barberbook/internal/redis"
	"github.com/barberbook/barberbook/internal/schedule"
)

// Engine orchestrates booking, cancellation and rescheduling against the
// availability and appointment stores. There is no multi-record
// transaction underneath: the availability store's Reserve is the only
// serialization point per slot, and every later step is compensated if a
// step after it fails.
type Engine struct {
	provider schedule.ProviderID
	grid     *schedule.Grid
	avail    availability.Store
	appts    AppointmentStore
	locker   redisclient.Locker
}

func NewEngine(provider schedule.ProviderID, grid *schedule.Grid, avail availability.Store, appts AppointmentStore, locker redisclient.Locker) *Engine {
	return &Engine{
		provider: provider,
		grid:     grid,
		avail:    avail,
		appts:    appts,
		locker:   locker,
	}
}

// Provider returns the provider of record this engine schedules for.
func (e *Engine) Provider() schedule.ProviderID { return e.provider }

func (e *Engine) checkProvider(provider schedule.ProviderID) error {
	if provider != e.provider {
		return ErrProviderNotFound
	}
	return nil
}

func (e *Engine) validateSlot(day schedule.Day, t schedule.TimeOfDay) error {
	if _, err := day.Weekday(); err != nil {
		return validationError("invalid day %q", day)
	}
	if !e.grid.Contains(day, t) {
		return validationError("time %s is outside business hours for %s", t, day)
	}
	return nil
}

// Book reserves the slot and records the appointment under both indices.
// If the appointment record cannot be created after the slot was reserved,
// the reservation is released again; the engine must never leave a slot
// reserved with no appointment behind it.
func (e *Engine) Book(ctx context.Context, provider schedule.ProviderID, customerID string, day schedule.Day, t schedule.TimeOfDay, notes string) (Confirmation, error) {
	if err := e.checkProvider(provider); err != nil {
		return Confirmation{}, err
	}
	if strings.TrimSpace(customerID) == "" {
		return Confirmation{}, validationError("customer_id is required")
	}
	if err := e.validateSlot(day, t); err != nil {
		return Confirmation{}, err
	}

	slot := schedule.Slot{Day: day, Time: t}
	appt := Appointment{
		ID:         NewAppointmentID(day, t),
		ProviderID: e.provider,
		CustomerID: customerID,
		Day:        day,
		Time:       t,
		Notes:      notes,
		Status:     StatusBooked,
	}

	err := e.locker.WithSlotLock(ctx, e.lockKey(slot), func(lockCtx context.Context) error {
		if err := e.avail.Reserve(lockCtx, e.provider, day, t); err != nil {
			if errors.Is(err, availability.ErrAlreadyReserved) {
				return ErrSlotNoLongerAvailable
			}
			return fmt.Errorf("reserve slot: %w", err)
		}

		if err := e.appts.Create(lockCtx, appt); err != nil {
			if relErr := e.avail.Release(lockCtx, e.provider, day, t); relErr != nil {
				return e.violation(lockCtx, "book", appt.ID,
					fmt.Sprintf("slot %s reserved but appointment create and compensating release both failed", slot), relErr)
			}
			return err
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return Confirmation{}, ErrSlotBeingBooked
		}
		return Confirmation{}, err
	}

	e.logEvent(ctx, appt.ID, EventAppointmentBooked, map[string]any{
		"customer_id": customerID,
		"day":         day.String(),
		"time":        t.String(),
	})

	return Confirmation{AppointmentID: appt.ID, Slot: slot}, nil
}

// Cancel removes the appointment from both indices and releases its slot
// back to availability. The release is idempotent, so a retried cancel
// still succeeds.
func (e *Engine) Cancel(ctx context.Context, provider schedule.ProviderID, id AppointmentID) error {
	if err := e.checkProvider(provider); err != nil {
		return err
	}

	appt, err := e.appts.Cancel(ctx, e.provider, id)
	if err != nil {
		return err
	}

	if err := e.avail.Release(ctx, e.provider, appt.Day, appt.Time); err != nil {
		return e.violation(ctx, "cancel", id,
			fmt.Sprintf("appointment %s removed but slot %s could not be released", id, appt.Slot()), err)
	}

	e.logEvent(ctx, id, EventAppointmentCancelled, map[string]any{
		"customer_id": appt.CustomerID,
	})
	return nil
}

// CancelByCustomer cancels the customer's own active appointment and
// releases its slot, without the customer having to know the slot key.
func (e *Engine) CancelByCustomer(ctx context.Context, customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return validationError("customer_id is required")
	}

	appt, err := e.appts.CancelByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	if err := e.avail.Release(ctx, e.provider, appt.Day, appt.Time); err != nil {
		return e.violation(ctx, "cancel", appt.ID,
			fmt.Sprintf("appointment %s removed but slot %s could not be released", appt.ID, appt.Slot()), err)
	}

	e.logEvent(ctx, appt.ID, EventAppointmentCancelled, map[string]any{
		"customer_id": appt.CustomerID,
	})
	return nil
}

// Reschedule moves an appointment to a new slot for the same customer. It
// reserves the new slot first so that a conflict leaves the original
// appointment completely untouched; once the old record is removed, any
// later failure restores it rather than leaving the customer with no
// appointment at all.
func (e *Engine) Reschedule(ctx context.Context, provider schedule.ProviderID, id AppointmentID, newDay schedule.Day, newTime schedule.TimeOfDay) (Confirmation, error) {
	if err := e.checkProvider(provider); err != nil {
		return Confirmation{}, err
	}
	if err := e.validateSlot(newDay, newTime); err != nil {
		return Confirmation{}, err
	}

	old, err := e.appts.Get(ctx, e.provider, id)
	if err != nil {
		return Confirmation{}, err
	}

	newSlot := schedule.Slot{Day: newDay, Time: newTime}
	moved := Appointment{
		ID:         NewAppointmentID(newDay, newTime),
		ProviderID: e.provider,
		CustomerID: old.CustomerID,
		Day:        newDay,
		Time:       newTime,
		Notes:      old.Notes,
		Status:     StatusBooked,
	}

	err = e.locker.WithSlotLock(ctx, e.lockKey(newSlot), func(lockCtx context.Context) error {
		if err := e.avail.Reserve(lockCtx, e.provider, newDay, newTime); err != nil {
			if errors.Is(err, availability.ErrAlreadyReserved) {
				return ErrSlotNoLongerAvailable
			}
			return fmt.Errorf("reserve new slot: %w", err)
		}

		if _, err := e.appts.Cancel(lockCtx, e.provider, id); err != nil {
			if relErr := e.avail.Release(lockCtx, e.provider, newDay, newTime); relErr != nil {
				return e.violation(lockCtx, "reschedule", id,
					fmt.Sprintf("new slot %s reserved but old appointment removal and compensating release both failed", newSlot), relErr)
			}
			return err
		}

		if err := e.appts.Create(lockCtx, moved); err != nil {
			// Put the old appointment back before surfacing the failure.
			if restoreErr := e.appts.Create(lockCtx, old); restoreErr != nil {
				return e.violation(lockCtx, "reschedule", id,
					fmt.Sprintf("appointment %s removed and could not be restored", id), restoreErr)
			}
			if relErr := e.avail.Release(lockCtx, e.provider, newDay, newTime); relErr != nil {
				return e.violation(lockCtx, "reschedule", id,
					fmt.Sprintf("new slot %s stuck reserved after failed reschedule", newSlot), relErr)
			}
			if errors.Is(err, ErrSlotTaken) {
				return ErrSlotNoLongerAvailable
			}
			return err
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return Confirmation{}, ErrSlotBeingBooked
		}
		return Confirmation{}, err
	}

	if err := e.avail.Release(ctx, e.provider, old.Day, old.Time); err != nil {
		return Confirmation{}, e.violation(ctx, "reschedule", moved.ID,
			fmt.Sprintf("appointment moved to %s but old slot %s could not be released", newSlot, old.Slot()), err)
	}

	e.logEvent(ctx, moved.ID, EventAppointmentRescheduled, map[string]any{
		"customer_id": old.CustomerID,
		"from":        old.Slot().String(),
		"to":          newSlot.String(),
	})

	return Confirmation{AppointmentID: moved.ID, Slot: newSlot}, nil
}

// PublishHours replaces the provider's availability calendar wholesale.
func (e *Engine) PublishHours(ctx context.Context, caller, provider schedule.ProviderID, cal availability.Calendar) error {
	if err := e.checkProvider(provider); err != nil {
		return err
	}

	if err := e.avail.Publish(ctx, caller, provider, cal); err != nil {
		if errors.Is(err, availability.ErrSlotOutsideGrid) {
			return validationError("%v", err)
		}
		return err
	}

	e.logEvent(ctx, "", EventHoursPublished, map[string]any{
		"days": len(cal),
	})
	return nil
}

// ListAvailability returns the ordered open slots for a day.
func (e *Engine) ListAvailability(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]schedule.Slot, error) {
	if err := e.checkProvider(provider); err != nil {
		return nil, err
	}
	if _, err := day.Weekday(); err != nil {
		return nil, validationError("invalid day %q", day)
	}
	return e.avail.ListOpen(ctx, provider, day)
}

// DayAppointments returns a day's bookings ordered by time, for the
// provider's schedule view.
func (e *Engine) DayAppointments(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]Appointment, error) {
	if err := e.checkProvider(provider); err != nil {
		return nil, err
	}
	if _, err := day.Weekday(); err != nil {
		return nil, validationError("invalid day %q", day)
	}
	return e.appts.Find(ctx, provider, day)
}

// CustomerAppointment returns the customer's single active appointment.
func (e *Engine) CustomerAppointment(ctx context.Context, customerID string) (Appointment, error) {
	if strings.TrimSpace(customerID) == "" {
		return Appointment{}, validationError("customer_id is required")
	}
	return e.appts.GetByCustomer(ctx, customerID)
}

// Audit cross-checks appointments against the open-slot set: a booked
// appointment whose slot is still open could be sold twice. Detection
// only; nothing is repaired silently.
func (e *Engine) Audit(ctx context.Context) ([]string, error) {
	days, err := e.appts.Days(ctx, e.provider)
	if err != nil {
		return nil, fmt.Errorf("list appointment days: %w", err)
	}

	var findings []string
	for _, day := range days {
		appts, err := e.appts.Find(ctx, e.provider, day)
		if err != nil {
			return nil, fmt.Errorf("find appointments for %s: %w", day, err)
		}
		open, err := e.avail.ListOpen(ctx, e.provider, day)
		if err != nil {
			return nil, fmt.Errorf("list open slots for %s: %w", day, err)
		}

		openSet := make(map[schedule.TimeOfDay]struct{}, len(open))
		for _, slot := range open {
			openSet[slot.Time] = struct{}{}
		}
		for _, appt := range appts {
			if _, stillOpen := openSet[appt.Time]; stillOpen {
				finding := fmt.Sprintf("appointment %s is booked but slot %s is still open", appt.ID, appt.Slot())
				findings = append(findings, finding)
				e.logEvent(ctx, appt.ID, EventConsistencyViolation, map[string]any{
					"detail": finding,
				})
			}
		}
	}
	return findings, nil
}

// violation records a consistency violation loudly and returns it as an
// *InconsistencyError. Compensating-rollback failures come through here
// instead of being discarded.
func (e *Engine) violation(ctx context.Context, op string, id AppointmentID, detail string, cause error) error {
	vErr := &InconsistencyError{Op: op, Detail: detail, Cause: cause}
	log.Printf("CONSISTENCY VIOLATION op=%s appointment=%s detail=%q cause=%v", op, id, detail, cause)
	e.logEvent(ctx, id, EventConsistencyViolation, map[string]any{
		"op":     op,
		"detail": detail,
	})
	return vErr
}

func (e *Engine) lockKey(slot schedule.Slot) string {
	return e.provider.String() + ":" + slot.Key()
}

func (e *Engine) logEvent(ctx context.Context, id AppointmentID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: id,
		Payload:       data,
	}
	if err := e.appts.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, id, err)
	}
}
