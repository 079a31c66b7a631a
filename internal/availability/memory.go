package availability

import (
	"context"
	"sync"

	"github.com/barberbook/barberbook/internal/schedule"
)

// MemoryStore keeps calendars in process memory. All mutations run under
// one mutex, so Reserve's check-and-delete is atomic.
type MemoryStore struct {
	grid *schedule.Grid

	mu   sync.Mutex
	open map[schedule.ProviderID]map[schedule.Day]map[schedule.TimeOfDay]struct{}
}

func NewMemoryStore(grid *schedule.Grid) *MemoryStore {
	return &MemoryStore{
		grid: grid,
		open: make(map[schedule.ProviderID]map[schedule.Day]map[schedule.TimeOfDay]struct{}),
	}
}

func (s *MemoryStore) Publish(ctx context.Context, caller, provider schedule.ProviderID, cal Calendar) error {
	if caller != provider {
		return ErrNotAuthorized
	}
	if err := validateCalendar(s.grid, cal); err != nil {
		return err
	}

	next := make(map[schedule.Day]map[schedule.TimeOfDay]struct{}, len(cal))
	for day, times := range cal {
		set := make(map[schedule.TimeOfDay]struct{}, len(times))
		for _, t := range times {
			set[t] = struct{}{}
		}
		next[day] = set
	}

	s.mu.Lock()
	s.open[provider] = next
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListOpen(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]schedule.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]schedule.Slot, 0)
	for t := range s.open[provider][day] {
		slots = append(slots, schedule.Slot{Day: day, Time: t})
	}
	schedule.SortSlots(slots)
	return slots, nil
}

func (s *MemoryStore) Reserve(ctx context.Context, provider schedule.ProviderID, day schedule.Day, t schedule.TimeOfDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.open[provider][day]
	if _, ok := set[t]; !ok {
		return ErrAlreadyReserved
	}
	delete(set, t)
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, provider schedule.ProviderID, day schedule.Day, t schedule.TimeOfDay) error {
	if !s.grid.Contains(day, t) {
		return ErrSlotOutsideGrid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	days, ok := s.open[provider]
	if !ok {
		days = make(map[schedule.Day]map[schedule.TimeOfDay]struct{})
		s.open[provider] = days
	}
	set, ok := days[day]
	if !ok {
		set = make(map[schedule.TimeOfDay]struct{})
		days[day] = set
	}
	set[t] = struct{}{}
	return nil
}
