package scheduling

import (
	"context"
	"errors"
	"testing"

	"github.com/barberbook/barberbook/internal/schedule"
)

const testProvider = schedule.ProviderID("barber")

func testAppointment(customerID string, day schedule.Day, t schedule.TimeOfDay) Appointment {
	return Appointment{
		ID:         NewAppointmentID(day, t),
		ProviderID: testProvider,
		CustomerID: customerID,
		Day:        day,
		Time:       t,
		Status:     StatusBooked,
	}
}

func TestMemoryStore_CreateIndexesBothWays(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	appt := testAppointment("c1", "2025-05-26", schedule.TimeAt(10, 30))
	if err := store.Create(ctx, appt); err != nil {
		t.Fatalf("create error: %v", err)
	}

	bySlot, err := store.Get(ctx, testProvider, appt.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	byCustomer, err := store.GetByCustomer(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByCustomer error: %v", err)
	}
	if bySlot.ID != byCustomer.ID || bySlot.CustomerID != byCustomer.CustomerID {
		t.Fatalf("indices disagree: slot=%+v customer=%+v", bySlot, byCustomer)
	}
}

func TestMemoryStore_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Create(ctx, testAppointment("c1", "2025-05-26", schedule.TimeAt(10, 30))); err != nil {
		t.Fatalf("create error: %v", err)
	}

	err := store.Create(ctx, testAppointment("c2", "2025-05-26", schedule.TimeAt(10, 30)))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("same-slot create err = %v, want ErrSlotTaken", err)
	}

	err = store.Create(ctx, testAppointment("c1", "2025-05-26", schedule.TimeAt(12, 0)))
	if !errors.Is(err, ErrCustomerAlreadyBooked) {
		t.Fatalf("same-customer create err = %v, want ErrCustomerAlreadyBooked", err)
	}
}

func TestMemoryStore_CancelClearsBothIndices(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	appt := testAppointment("c1", "2025-05-26", schedule.TimeAt(10, 30))
	if err := store.Create(ctx, appt); err != nil {
		t.Fatalf("create error: %v", err)
	}

	cancelled, err := store.Cancel(ctx, testProvider, appt.ID)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status = %s, want %s", cancelled.Status, StatusCancelled)
	}

	if _, err := store.Get(ctx, testProvider, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("slot index still holds appointment: %v", err)
	}
	if _, err := store.GetByCustomer(ctx, "c1"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("customer index still holds appointment: %v", err)
	}

	// The customer can book again once the old appointment is gone.
	if err := store.Create(ctx, testAppointment("c1", "2025-05-27", schedule.TimeAt(11, 0))); err != nil {
		t.Fatalf("rebook after cancel error: %v", err)
	}
}

func TestMemoryStore_CancelNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Cancel(context.Background(), testProvider, "2025-05-26_10:30")
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestMemoryStore_CancelByCustomer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	appt := testAppointment("c1", "2025-05-26", schedule.TimeAt(10, 30))
	if err := store.Create(ctx, appt); err != nil {
		t.Fatalf("create error: %v", err)
	}

	cancelled, err := store.CancelByCustomer(ctx, "c1")
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if cancelled.ID != appt.ID {
		t.Fatalf("cancelled id = %s, want %s", cancelled.ID, appt.ID)
	}
	if _, err := store.Get(ctx, testProvider, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("slot index still holds appointment: %v", err)
	}
}

func TestMemoryStore_FindOrderedByTime(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	times := []schedule.TimeOfDay{
		schedule.TimeAt(15, 0),
		schedule.TimeAt(9, 30),
		schedule.TimeAt(12, 0),
	}
	for i, tod := range times {
		customer := string(rune('a' + i))
		if err := store.Create(ctx, testAppointment(customer, "2025-05-26", tod)); err != nil {
			t.Fatalf("create error: %v", err)
		}
	}
	// A different day must not show up.
	if err := store.Create(ctx, testAppointment("z", "2025-05-27", schedule.TimeAt(10, 0))); err != nil {
		t.Fatalf("create error: %v", err)
	}

	appts, err := store.Find(ctx, testProvider, "2025-05-26")
	if err != nil {
		t.Fatalf("find error: %v", err)
	}
	want := []string{"09:30", "12:00", "15:00"}
	if len(appts) != len(want) {
		t.Fatalf("got %d appointments, want %d", len(appts), len(want))
	}
	for i, appt := range appts {
		if appt.Time.String() != want[i] {
			t.Fatalf("appt[%d].Time = %s, want %s", i, appt.Time, want[i])
		}
	}
}

func TestMemoryStore_Days(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Create(ctx, testAppointment("c1", "2025-05-27", schedule.TimeAt(10, 0))); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if err := store.Create(ctx, testAppointment("c2", "2025-05-26", schedule.TimeAt(10, 0))); err != nil {
		t.Fatalf("create error: %v", err)
	}

	days, err := store.Days(ctx, testProvider)
	if err != nil {
		t.Fatalf("days error: %v", err)
	}
	if len(days) != 2 || days[0] != "2025-05-26" || days[1] != "2025-05-27" {
		t.Fatalf("days = %v, want [2025-05-26 2025-05-27]", days)
	}
}
