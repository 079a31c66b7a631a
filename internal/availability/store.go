package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/barberbook/barberbook/internal/schedule"
)

var (
	ErrNotAuthorized   = errors.New("caller is not the provider of record")
	ErrAlreadyReserved = errors.New("slot is not open")
	ErrSlotOutsideGrid = errors.New("slot is not on the provider's grid")
)

// Calendar maps a day to the times currently open for booking. A provider
// publishes a whole calendar at once; partial updates are not a thing.
type Calendar map[schedule.Day][]schedule.TimeOfDay

// Store holds the open-slot set per provider. Reserve is the single
// serialization point per (provider, day, time): implementations must make
// it an atomic conditional remove, never a read-then-write pair.
type Store interface {
	// Publish replaces the provider's calendar wholesale. All-or-nothing:
	// a failed publish leaves the previous calendar untouched.
	Publish(ctx context.Context, caller, provider schedule.ProviderID, cal Calendar) error

	// ListOpen returns the open slots for a day, ordered by time. An empty
	// slice is a normal answer, not an error.
	ListOpen(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]schedule.Slot, error)

	// Reserve removes exactly one open slot. ErrAlreadyReserved when the
	// slot is not currently open, which also covers stale client views.
	Reserve(ctx context.Context, provider schedule.ProviderID, day schedule.Day, t schedule.TimeOfDay) error

	// Release re-inserts a slot. Idempotent: releasing an already-open slot
	// is a no-op, so cancellation and reschedule paths can be retried.
	Release(ctx context.Context, provider schedule.ProviderID, day schedule.Day, t schedule.TimeOfDay) error
}

// validateCalendar rejects any published entry that is not a member of the
// generated grid for its day.
func validateCalendar(grid *schedule.Grid, cal Calendar) error {
	for day, times := range cal {
		if _, err := day.Weekday(); err != nil {
			return err
		}
		for _, t := range times {
			if !grid.Contains(day, t) {
				return fmt.Errorf("%w: %s", ErrSlotOutsideGrid, schedule.Slot{Day: day, Time: t})
			}
		}
	}
	return nil
}
