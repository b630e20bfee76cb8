package shift

import (
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
)

type SelectRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
	SlotTime   string `json:"slot_time"`
	Date       string `json:"date"`

	date calendar.Date
}

func (r *SelectRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID != "" && !validator.IsValidEmployeeID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is invalid"})
	}
	if !validator.IsValidClock(r.SlotTime) {
		errs = append(errs, validator.ValidationError{Field: "slot_time", Message: "slot_time must be HH:MM"})
	}
	d, err := calendar.Parse(r.Date)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	r.date = d
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParsedDate is valid after Validate.
func (r *SelectRequest) ParsedDate() calendar.Date { return r.date }

// AdminAssignRequest sets (SlotTime) or clears (nil SlotTime) an employee's shift on a date.
type AdminAssignRequest struct {
	SlotTime *string `json:"slot_time"`
	Reason   string  `json:"reason,omitempty"`
}

func (r *AdminAssignRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.SlotTime != nil && !validator.IsValidClock(*r.SlotTime) {
		errs = append(errs, validator.ValidationError{Field: "slot_time", Message: "slot_time must be HH:MM or null"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AutoAssignRequest struct {
	EmployeeID string   `json:"employee_id"`
	Pattern    []string `json:"pattern,omitempty"`
	WeekStart  string   `json:"week_start"`

	week calendar.Date
}

func (r *AutoAssignRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidEmployeeID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	for _, s := range r.Pattern {
		if !validator.IsValidClock(s) {
			errs = append(errs, validator.ValidationError{Field: "pattern", Message: "pattern entries must be HH:MM"})
			break
		}
	}
	d, err := calendar.Parse(r.WeekStart)
	if err != nil {
		errs = append(errs, validator.ValidationError{Field: "week_start", Message: "week_start must be in YYYY-MM-DD format"})
	}
	r.week = d
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *AutoAssignRequest) ParsedWeek() calendar.Date { return r.week }

type PatternRequest struct {
	Slots []string `json:"slots"`
}

func (r *PatternRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Slots) == 0 {
		errs = append(errs, validator.ValidationError{Field: "slots", Message: ErrEmptyPattern.Error()})
	}
	for _, s := range r.Slots {
		if !validator.IsValidClock(s) {
			errs = append(errs, validator.ValidationError{Field: "slots", Message: "slots must be HH:MM"})
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Filter selects assignments by employee and inclusive date range; zero values are open.
type Filter struct {
	EmployeeID string
	From       calendar.Date
	To         calendar.Date
}

func (f Filter) Match(a Assignment) bool {
	if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
		return false
	}
	return a.Date.Within(f.From, f.To)
}

// AutoAssignResult reports what AutoAssignWeek created and which dates it left alone
// because the slot was held by someone else or the employee already had a shift that day.
type AutoAssignResult struct {
	EmployeeID string          `json:"employee_id"`
	WeekStart  calendar.Date   `json:"week_start"`
	WeekIndex  int             `json:"week_index"`
	SlotTime   string          `json:"slot_time"`
	Created    []Assignment    `json:"created"`
	Skipped    []calendar.Date `json:"skipped,omitempty"`
}
