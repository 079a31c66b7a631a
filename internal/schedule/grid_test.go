package schedule

import (
	"reflect"
	"testing"
)

func TestDefaultGrid_RegularDay(t *testing.T) {
	grid := DefaultGrid()

	slots, err := grid.SlotsFor("monday")
	if err != nil {
		t.Fatalf("SlotsFor error: %v", err)
	}
	if len(slots) != 27 {
		t.Fatalf("slot count = %d, want 27", len(slots))
	}
	if slots[0].Time.String() != "09:00" {
		t.Fatalf("first slot = %s, want 09:00", slots[0].Time)
	}
	if slots[len(slots)-1].Time.String() != "22:00" {
		t.Fatalf("last slot = %s, want 22:00", slots[len(slots)-1].Time)
	}
	// The closing slot is emitted on top of the half-hour stride.
	if slots[len(slots)-2].Time.String() != "21:30" {
		t.Fatalf("penultimate slot = %s, want 21:30", slots[len(slots)-2].Time)
	}
}

func TestDefaultGrid_ShortDay(t *testing.T) {
	grid := DefaultGrid()

	slots, err := grid.SlotsFor("friday")
	if err != nil {
		t.Fatalf("SlotsFor error: %v", err)
	}
	if len(slots) != 21 {
		t.Fatalf("slot count = %d, want 21", len(slots))
	}
	if slots[0].Time.String() != "09:00" {
		t.Fatalf("first slot = %s, want 09:00", slots[0].Time)
	}
	if slots[19].Time.String() != "18:30" {
		t.Fatalf("slot[19] = %s, want 18:30", slots[19].Time)
	}
	if slots[20].Time.String() != "19:00" {
		t.Fatalf("closing slot = %s, want 19:00", slots[20].Time)
	}
}

func TestDefaultGrid_LateStartDay(t *testing.T) {
	grid := DefaultGrid()

	slots, err := grid.SlotsFor("saturday")
	if err != nil {
		t.Fatalf("SlotsFor error: %v", err)
	}
	if len(slots) != 9 {
		t.Fatalf("slot count = %d, want 9", len(slots))
	}
	if slots[0].Time.String() != "18:00" {
		t.Fatalf("first slot = %s, want 18:00", slots[0].Time)
	}
	if slots[8].Time.String() != "22:00" {
		t.Fatalf("closing slot = %s, want 22:00", slots[8].Time)
	}
}

func TestGrid_Deterministic(t *testing.T) {
	grid := DefaultGrid()

	for _, day := range []Day{"sunday", "friday", "saturday", "2025-05-26"} {
		first, err := grid.SlotsFor(day)
		if err != nil {
			t.Fatalf("SlotsFor(%s) error: %v", day, err)
		}
		second, err := grid.SlotsFor(day)
		if err != nil {
			t.Fatalf("SlotsFor(%s) error: %v", day, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("SlotsFor(%s) not deterministic", day)
		}
	}
}

func TestGrid_DateResolvesToWeekdayRule(t *testing.T) {
	grid := DefaultGrid()

	// 2025-05-30 is a Friday, the short day.
	slots, err := grid.SlotsFor("2025-05-30")
	if err != nil {
		t.Fatalf("SlotsFor error: %v", err)
	}
	if len(slots) != 21 {
		t.Fatalf("slot count = %d, want 21", len(slots))
	}
	if slots[len(slots)-1].Time.String() != "19:00" {
		t.Fatalf("closing slot = %s, want 19:00", slots[len(slots)-1].Time)
	}
}

func TestGrid_Contains(t *testing.T) {
	grid := DefaultGrid()

	cases := []struct {
		day  Day
		time string
		want bool
	}{
		{"monday", "09:00", true},
		{"monday", "21:30", true},
		{"monday", "22:00", true},  // closing slot
		{"monday", "22:30", false}, // past close
		{"monday", "08:30", false}, // before open
		{"friday", "19:00", true},  // short-day close
		{"friday", "19:30", false},
		{"saturday", "17:30", false}, // before late start
		{"saturday", "18:00", true},
	}
	for _, tc := range cases {
		tod, err := ParseTimeOfDay(tc.time)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%s) error: %v", tc.time, err)
		}
		if got := grid.Contains(tc.day, tod); got != tc.want {
			t.Errorf("Contains(%s, %s) = %v, want %v", tc.day, tc.time, got, tc.want)
		}
	}
}

func TestParseDay(t *testing.T) {
	if _, err := ParseDay("Friday"); err != nil {
		t.Fatalf("weekday label rejected: %v", err)
	}
	if _, err := ParseDay("2025-05-26"); err != nil {
		t.Fatalf("date rejected: %v", err)
	}
	for _, bad := range []string{"", "someday", "2025-13-40", "26/05/2025"} {
		if _, err := ParseDay(bad); err == nil {
			t.Errorf("ParseDay(%q) accepted, want error", bad)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("10:30")
	if err != nil {
		t.Fatalf("ParseTimeOfDay error: %v", err)
	}
	if tod != TimeAt(10, 30) {
		t.Fatalf("parsed = %d, want %d", tod, TimeAt(10, 30))
	}
	if tod.String() != "10:30" {
		t.Fatalf("round-trip = %q, want 10:30", tod.String())
	}

	for _, bad := range []string{"", "9:30", "10:15", "25:00", "10.30", "10:30:00"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q) accepted, want error", bad)
		}
	}
}
