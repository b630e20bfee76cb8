package shift

import (
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
)

// Slot is a shift start on a day of the week, Time formatted "HH:MM".
type Slot struct {
	Day  time.Weekday `json:"day"`
	Time string       `json:"time"`
}

type Source string

const (
	SourceRotation Source = "rotation"
	SourceSelf     Source = "self"
	SourceAdmin    Source = "admin"
)

// Assignment binds one employee to one slot time on one date.
type Assignment struct {
	ID         string        `json:"id"`
	EmployeeID string        `json:"employee_id"`
	Date       calendar.Date `json:"date"`
	SlotTime   string        `json:"slot_time"`
	Source     Source        `json:"source"`
	CreatedBy  string        `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (a Assignment) Slot() Slot {
	return Slot{Day: a.Date.Weekday(), Time: a.SlotTime}
}

// Key is the unique (date, slot time) identity; a slot on a date holds one employee.
func Key(date calendar.Date, slotTime string) string {
	return date.String() + "/" + slotTime
}

func (a Assignment) Key() string {
	return Key(a.Date, a.SlotTime)
}

func (a Assignment) Equal(o Assignment) bool {
	return a.ID == o.ID &&
		a.EmployeeID == o.EmployeeID &&
		a.Date == o.Date &&
		a.SlotTime == o.SlotTime &&
		a.Source == o.Source &&
		a.CreatedBy == o.CreatedBy &&
		a.CreatedAt.Equal(o.CreatedAt)
}

// Pattern is an employee's ordered list of slot times cycled week by week.
type Pattern struct {
	EmployeeID string    `json:"employee_id" yaml:"employee_id"`
	Slots      []string  `json:"slots" yaml:"slots"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

func (p Pattern) Clone() Pattern {
	p.Slots = append([]string(nil), p.Slots...)
	return p
}

func (p Pattern) Equal(o Pattern) bool {
	if p.EmployeeID != o.EmployeeID || !p.UpdatedAt.Equal(o.UpdatedAt) || len(p.Slots) != len(o.Slots) {
		return false
	}
	for i := range p.Slots {
		if p.Slots[i] != o.Slots[i] {
			return false
		}
	}
	return true
}

// WeekIndex is floor(days from epoch to weekStart / 7) + 1. The epoch itself may be any
// weekday; weekStart must be a Monday.
func WeekIndex(epoch, weekStart calendar.Date) int {
	days := weekStart.DaysSince(epoch)
	week := days / 7
	if days%7 != 0 && days < 0 {
		week--
	}
	return week + 1
}

// SlotForWeek picks the pattern entry for weekIndex. Indexes before the epoch wrap
// backwards so the cycle stays continuous.
func (p Pattern) SlotForWeek(weekIndex int) string {
	n := len(p.Slots)
	i := ((weekIndex-1)%n + n) % n
	return p.Slots[i]
}
