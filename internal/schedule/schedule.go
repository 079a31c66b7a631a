package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidDay  = errors.New("day must be a weekday name or a YYYY-MM-DD date")
	ErrInvalidTime = errors.New("time must be HH:MM on a half-hour boundary")
)

// ProviderID identifies the provider of record. It is resolved once from
// configuration and passed explicitly, never re-read from ambient state.
type ProviderID string

func (p ProviderID) String() string { return string(p) }

// Weekday labels accepted as calendar keys, Sunday first to match the
// published-hours grid.
var WeekdayNames = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

const dateLayout = "2006-01-02"

// Day is either one of the seven fixed weekday labels or an ISO calendar
// date. Dates resolve to their weekday when business-hour rules are applied.
type Day string

func ParseDay(raw string) (Day, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, name := range WeekdayNames {
		if s == name {
			return Day(s), nil
		}
	}
	if _, err := time.Parse(dateLayout, s); err == nil {
		return Day(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDay, raw)
}

func (d Day) String() string { return string(d) }

// Weekday returns the weekday index (0 = Sunday) governing this day's
// business-hour rules.
func (d Day) Weekday() (time.Weekday, error) {
	for i, name := range WeekdayNames {
		if string(d) == name {
			return time.Weekday(i), nil
		}
	}
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, string(d))
	}
	return t.Weekday(), nil
}

// TimeOfDay is a clock value stored as minutes since midnight. Slot times
// are half-hour aligned.
type TimeOfDay int

func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	var h, m int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil || len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	if h < 0 || h > 23 || (m != 0 && m != 30) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return TimeOfDay(h*60 + m), nil
}

func TimeAt(hour, minute int) TimeOfDay { return TimeOfDay(hour*60 + minute) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Slot is a single bookable (day, time) unit. Immutable once generated.
type Slot struct {
	Day  Day
	Time TimeOfDay
}

func (s Slot) String() string { return s.Day.String() + " " + s.Time.String() }

// Key is the provider-facing slot key, also used as the appointment ID.
func (s Slot) Key() string { return s.Day.String() + "_" + s.Time.String() }

// SortSlots orders slots by day then time ascending for display.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].Time < slots[j].Time
	})
}
