package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
)

// ParseTimestamp accepts RFC3339 or a zone-less "YYYY-MM-DD HH:MM[:SS]" (a "T" separator
// also works) read in loc. Anything else is ErrInvalidTimestamp.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	ts, ok := validator.ParseTimestamp(raw, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return ts, nil
}

// PunchRequest drives clock-in, clock-out and the toggle. An empty EmployeeID means the
// caller's own record; an empty Timestamp means now.
type PunchRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.EmployeeID != "" && !validator.IsValidEmployeeID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is invalid",
		})
	}
	if r.Timestamp != "" {
		if _, ok := validator.ParseTimestamp(r.Timestamp, time.UTC); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "timestamp",
				Message: "timestamp must be RFC3339 or YYYY-MM-DD HH:MM[:SS]",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CorrectRequest rewrites one day's record. A nil ClockOut leaves the record open.
type CorrectRequest struct {
	ClockIn  string  `json:"clock_in"`
	ClockOut *string `json:"clock_out,omitempty"`
	Reason   string  `json:"reason"`
}

func (r *CorrectRequest) Validate() error {
	var errs validator.ValidationErrors
	if _, ok := validator.ParseTimestamp(r.ClockIn, time.UTC); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_in",
			Message: "clock_in is required and must be a valid timestamp",
		})
	}
	if r.ClockOut != nil {
		if _, ok := validator.ParseTimestamp(*r.ClockOut, time.UTC); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "clock_out",
				Message: "clock_out must be a valid timestamp",
			})
		}
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Filter selects records by employee and inclusive date range; zero values are open.
type Filter struct {
	EmployeeID string
	From       calendar.Date
	To         calendar.Date
}

func (f Filter) Match(r Record) bool {
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	return r.Date.Within(f.From, f.To)
}

// ToggleResult tells the caller which punch SmartToggle performed.
type ToggleResult struct {
	Action audit.Action `json:"action"`
	Record Record       `json:"record"`
}
