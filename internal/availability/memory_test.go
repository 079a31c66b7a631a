package availability

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/barberbook/barberbook/internal/schedule"
)

const provider = schedule.ProviderID("barber")

func openCalendar(t *testing.T, days ...schedule.Day) Calendar {
	t.Helper()
	grid := schedule.DefaultGrid()

	cal := make(Calendar, len(days))
	for _, day := range days {
		slots, err := grid.SlotsFor(day)
		if err != nil {
			t.Fatalf("SlotsFor(%s) error: %v", day, err)
		}
		times := make([]schedule.TimeOfDay, 0, len(slots))
		for _, slot := range slots {
			times = append(times, slot.Time)
		}
		cal[day] = times
	}
	return cal
}

func TestMemoryStore_PublishAuthorization(t *testing.T) {
	store := NewMemoryStore(schedule.DefaultGrid())

	err := store.Publish(context.Background(), "somebody-else", provider, openCalendar(t, "monday"))
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}

	slots, err := store.ListOpen(context.Background(), provider, "monday")
	if err != nil {
		t.Fatalf("ListOpen error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("rejected publish left %d slots behind", len(slots))
	}
}

func TestMemoryStore_PublishRejectsOffGridSlots(t *testing.T) {
	store := NewMemoryStore(schedule.DefaultGrid())

	cal := Calendar{
		"monday": {schedule.TimeAt(9, 0), schedule.TimeAt(23, 0)},
	}
	err := store.Publish(context.Background(), provider, provider, cal)
	if !errors.Is(err, ErrSlotOutsideGrid) {
		t.Fatalf("err = %v, want ErrSlotOutsideGrid", err)
	}

	// All-or-nothing: the valid 09:00 entry must not have been written.
	slots, err := store.ListOpen(context.Background(), provider, "monday")
	if err != nil {
		t.Fatalf("ListOpen error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("partial publish wrote %d slots", len(slots))
	}
}

func TestMemoryStore_PublishReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(schedule.DefaultGrid())

	if err := store.Publish(ctx, provider, provider, openCalendar(t, "monday", "tuesday")); err != nil {
		t.Fatalf("first publish error: %v", err)
	}
	if err := store.Publish(ctx, provider, provider, openCalendar(t, "wednesday")); err != nil {
		t.Fatalf("second publish error: %v", err)
	}

	monday, _ := store.ListOpen(ctx, provider, "monday")
	if len(monday) != 0 {
		t.Fatalf("monday still has %d slots after replacement", len(monday))
	}
	wednesday, _ := store.ListOpen(ctx, provider, "wednesday")
	if len(wednesday) != 27 {
		t.Fatalf("wednesday has %d slots, want 27", len(wednesday))
	}
}

func TestMemoryStore_ListOpenOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(schedule.DefaultGrid())

	cal := Calendar{
		"monday": {schedule.TimeAt(15, 0), schedule.TimeAt(9, 30), schedule.TimeAt(12, 0)},
	}
	if err := store.Publish(ctx, provider, provider, cal); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	slots, err := store.ListOpen(ctx, provider, "monday")
	if err != nil {
		t.Fatalf("ListOpen error: %v", err)
	}
	want := []string{"09:30", "12:00", "15:00"}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d", len(slots), len(want))
	}
	for i, slot := range slots {
		if slot.Time.String() != want[i] {
			t.Fatalf("slot[%d] = %s, want %s", i, slot.Time, want[i])
		}
	}
}

func TestMemoryStore_ReserveRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(schedule.DefaultGrid())

	if err := store.Publish(ctx, provider, provider, openCalendar(t, "monday")); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	if err := store.Reserve(ctx, provider, "monday", schedule.TimeAt(10, 30)); err != nil {
		t.Fatalf("reserve error: %v", err)
	}

	err := store.Reserve(ctx, provider, "monday", schedule.TimeAt(10, 30))
	if !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("second reserve err = %v, want ErrAlreadyReserved", err)
	}

	slots, _ := store.ListOpen(ctx, provider, "monday")
	if len(slots) != 26 {
		t.Fatalf("got %d open slots, want 26", len(slots))
	}
	for _, slot := range slots {
		if slot.Time == schedule.TimeAt(10, 30) {
			t.Fatalf("reserved slot still listed as open")
		}
	}
}

func TestMemoryStore_ReserveUnpublishedSlot(t *testing.T) {
	store := NewMemoryStore(schedule.DefaultGrid())

	err := store.Reserve(context.Background(), provider, "monday", schedule.TimeAt(10, 30))
	if !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("err = %v, want ErrAlreadyReserved", err)
	}
}

func TestMemoryStore_ReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(schedule.DefaultGrid())

	if err := store.Publish(ctx, provider, provider, openCalendar(t, "monday")); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if err := store.Reserve(ctx, provider, "monday", schedule.TimeAt(10, 30)); err != nil {
		t.Fatalf("reserve error: %v", err)
	}

	if err := store.Release(ctx, provider, "monday", schedule.TimeAt(10, 30)); err != nil {
		t.Fatalf("first release error: %v", err)
	}
	if err := store.Release(ctx, provider, "monday", schedule.TimeAt(10, 30)); err != nil {
		t.Fatalf("second release error: %v", err)
	}

	slots, _ := store.ListOpen(ctx, provider, "monday")
	if len(slots) != 27 {
		t.Fatalf("got %d open slots after double release, want 27", len(slots))
	}
}

func TestMemoryStore_ReleaseRejectsOffGridSlot(t *testing.T) {
	store := NewMemoryStore(schedule.DefaultGrid())

	err := store.Release(context.Background(), provider, "monday", schedule.TimeAt(23, 0))
	if !errors.Is(err, ErrSlotOutsideGrid) {
		t.Fatalf("err = %v, want ErrSlotOutsideGrid", err)
	}
}

func TestMemoryStore_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(schedule.DefaultGrid())

	if err := store.Publish(ctx, provider, provider, openCalendar(t, "monday")); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Reserve(ctx, provider, "monday", schedule.TimeAt(10, 30))
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyReserved):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}
	if conflicts != attempts-1 {
		t.Fatalf("conflicts = %d, want %d", conflicts, attempts-1)
	}
}
