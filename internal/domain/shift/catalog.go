package shift

import (
	"fmt"
	"time"
)

const slotLayout = "15:04"

// Week is the order days are listed in: Monday first.
var Week = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Catalog is the fixed set of slot start times, generated once at start-up.
type Catalog struct {
	times []string
	index map[string]int
}

// NewCatalog lists every start time from start to end inclusive, step apart.
func NewCatalog(start, end string, step time.Duration) (*Catalog, error) {
	from, err := time.Parse(slotLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid slot start %q: %w", start, err)
	}
	to, err := time.Parse(slotLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid slot end %q: %w", end, err)
	}
	if step <= 0 || step%time.Minute != 0 {
		return nil, fmt.Errorf("slot step must be a positive whole number of minutes, got %s", step)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("slot end %s is before start %s", end, start)
	}

	c := &Catalog{index: make(map[string]int)}
	for t := from; !t.After(to); t = t.Add(step) {
		s := t.Format(slotLayout)
		c.index[s] = len(c.times)
		c.times = append(c.times, s)
	}
	return c, nil
}

// DefaultCatalog is every half hour from 05:00 to 22:00.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog("05:00", "22:00", 30*time.Minute)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Times() []string {
	return append([]string(nil), c.times...)
}

func (c *Catalog) Contains(slotTime string) bool {
	_, ok := c.index[slotTime]
	return ok
}

// Slots expands the catalog over the whole week, Monday first.
func (c *Catalog) Slots() []Slot {
	slots := make([]Slot, 0, len(Week)*len(c.times))
	for _, day := range Week {
		for _, t := range c.times {
			slots = append(slots, Slot{Day: day, Time: t})
		}
	}
	return slots
}

// Rules are the self-service constraints of SelectShift.
type Rules struct {
	// ManagerOnlyTimes may only be self-selected by managers on ManagerOnlyDays.
	ManagerOnlyTimes []string
	ManagerOnlyDays  []time.Weekday
	MonthlyQuota     int
}

func DefaultRules() Rules {
	return Rules{
		ManagerOnlyTimes: []string{"06:30", "08:00"},
		ManagerOnlyDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		MonthlyQuota:     4,
	}
}

// ManagerOnly reports whether slot is reserved for managers.
func (r Rules) ManagerOnly(slot Slot) bool {
	dayMatch := false
	for _, d := range r.ManagerOnlyDays {
		if d == slot.Day {
			dayMatch = true
			break
		}
	}
	if !dayMatch {
		return false
	}
	for _, t := range r.ManagerOnlyTimes {
		if t == slot.Time {
			return true
		}
	}
	return false
}
