package schedule

import "time"

// HoursRule is the business-hour policy for one weekday: slots run from
// Open to Close at half-hour granularity, plus the closing slot exactly at
// Close even though it falls outside the regular stride.
type HoursRule struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// Grid generates the canonical set of bookable slots per day. It is pure:
// the same day always yields the same sequence.
type Grid struct {
	rules [7]HoursRule
}

// NewGrid builds a grid from per-weekday rules, Sunday first.
func NewGrid(rules [7]HoursRule) *Grid {
	return &Grid{rules: rules}
}

// DefaultGrid is the observed shop policy: 09:00-22:00 every day, Friday
// closes early at 19:00, Saturday opens late at 18:00.
func DefaultGrid() *Grid {
	g := &Grid{}
	for i := range g.rules {
		g.rules[i] = HoursRule{Open: TimeAt(9, 0), Close: TimeAt(22, 0)}
	}
	g.rules[time.Friday] = HoursRule{Open: TimeAt(9, 0), Close: TimeAt(19, 0)}
	g.rules[time.Saturday] = HoursRule{Open: TimeAt(18, 0), Close: TimeAt(22, 0)}
	return g
}

// Rule returns the business-hour rule governing the given day.
func (g *Grid) Rule(day Day) (HoursRule, error) {
	wd, err := day.Weekday()
	if err != nil {
		return HoursRule{}, err
	}
	return g.rules[wd], nil
}

// SlotsFor returns the full ordered slot sequence for a day. Callers must
// not assume count == (close-open)*2: the closing slot is always appended.
func (g *Grid) SlotsFor(day Day) ([]Slot, error) {
	rule, err := g.Rule(day)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for t := rule.Open; t < rule.Close; t += 30 {
		slots = append(slots, Slot{Day: day, Time: t})
	}
	slots = append(slots, Slot{Day: day, Time: rule.Close})
	return slots, nil
}

// Contains reports whether (day, t) is a member of the generated grid.
func (g *Grid) Contains(day Day, t TimeOfDay) bool {
	rule, err := g.Rule(day)
	if err != nil {
		return false
	}
	if t == rule.Close {
		return true
	}
	return t >= rule.Open && t < rule.Close && int(t)%30 == 0
}
