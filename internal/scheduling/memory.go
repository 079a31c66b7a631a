package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/barberbook/barberbook/internal/schedule"
)

// MemoryStore holds appointments in two in-process maps, one per index,
// mutated together under a single mutex.
type MemoryStore struct {
	mu         sync.Mutex
	bySlot     map[string]Appointment // provider|slot key
	byCustomer map[string]Appointment
	events     []EventLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bySlot:     make(map[string]Appointment),
		byCustomer: make(map[string]Appointment),
	}
}

func slotIndexKey(provider schedule.ProviderID, id AppointmentID) string {
	return provider.String() + "|" + string(id)
}

func (s *MemoryStore) Create(ctx context.Context, appt Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotIndexKey(appt.ProviderID, appt.ID)
	if _, ok := s.bySlot[key]; ok {
		return ErrSlotTaken
	}
	if existing, ok := s.byCustomer[appt.CustomerID]; ok && existing.Status == StatusBooked {
		return ErrCustomerAlreadyBooked
	}

	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now()
	}
	s.bySlot[key] = appt
	s.byCustomer[appt.CustomerID] = appt
	return nil
}

func (s *MemoryStore) Cancel(ctx context.Context, provider schedule.ProviderID, id AppointmentID) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotIndexKey(provider, id)
	appt, ok := s.bySlot[key]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}

	mirror, ok := s.byCustomer[appt.CustomerID]
	if !ok || mirror.ID != appt.ID {
		return Appointment{}, &InconsistencyError{
			Op:     "cancel",
			Detail: fmt.Sprintf("customer index for %q does not reference appointment %s", appt.CustomerID, appt.ID),
		}
	}

	delete(s.bySlot, key)
	delete(s.byCustomer, appt.CustomerID)
	appt.Status = StatusCancelled
	return appt, nil
}

func (s *MemoryStore) CancelByCustomer(ctx context.Context, customerID string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.byCustomer[customerID]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}

	key := slotIndexKey(appt.ProviderID, appt.ID)
	if _, ok := s.bySlot[key]; !ok {
		return Appointment{}, &InconsistencyError{
			Op:     "cancel_by_customer",
			Detail: fmt.Sprintf("slot index missing appointment %s held by customer %q", appt.ID, customerID),
		}
	}

	delete(s.bySlot, key)
	delete(s.byCustomer, customerID)
	appt.Status = StatusCancelled
	return appt, nil
}

func (s *MemoryStore) Get(ctx context.Context, provider schedule.ProviderID, id AppointmentID) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.bySlot[slotIndexKey(provider, id)]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *MemoryStore) GetByCustomer(ctx context.Context, customerID string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.byCustomer[customerID]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *MemoryStore) Find(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts := make([]Appointment, 0)
	for _, appt := range s.bySlot {
		if appt.ProviderID == provider && appt.Day == day {
			appts = append(appts, appt)
		}
	}
	sort.Slice(appts, func(i, j int) bool {
		if appts[i].Day != appts[j].Day {
			return appts[i].Day < appts[j].Day
		}
		return appts[i].Time < appts[j].Time
	})
	return appts, nil
}

func (s *MemoryStore) Days(ctx context.Context, provider schedule.ProviderID) ([]schedule.Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[schedule.Day]struct{})
	for _, appt := range s.bySlot {
		if appt.ProviderID == provider {
			seen[appt.Day] = struct{}{}
		}
	}
	days := make([]schedule.Day, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func (s *MemoryStore) InsertEvent(ctx context.Context, ev EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the recorded audit trail, oldest first.
func (s *MemoryStore) Events() []EventLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EventLog, len(s.events))
	copy(out, s.events)
	return out
}
