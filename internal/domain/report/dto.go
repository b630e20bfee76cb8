package report

import (
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// PERIOD SUMMARY
// ========================================

type SummaryRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
	From       string `json:"from"`
	To         string `json:"to"`

	from, to calendar.Date
}

func (r *SummaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != "" && !validator.IsValidEmployeeID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is invalid",
		})
	}

	from, err := calendar.Parse(r.From)
	if err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}
	to, err := calendar.Parse(r.To)
	if err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must not be before from",
		})
	}
	r.from, r.to = from, to

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period is valid after Validate.
func (r *SummaryRequest) Period() (calendar.Date, calendar.Date) {
	return r.from, r.to
}

type Summary struct {
	From        calendar.Date     `json:"from"`
	To          calendar.Date     `json:"to"`
	GeneratedAt time.Time         `json:"generated_at"`
	Employees   []EmployeeSummary `json:"employees"`
	Totals      Totals            `json:"totals"`
}

type EmployeeSummary struct {
	EmployeeID    string          `json:"employee_id"`
	FullName      string          `json:"full_name"`
	DaysWorked    int             `json:"days_worked"`
	OpenDays      int             `json:"open_days"`
	Shifts        int             `json:"shifts"`
	OrdinaryHours decimal.Decimal `json:"ordinary_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	Costs         *Costs          `json:"costs,omitempty"`
}

// Costs price a period at the employee's hourly rate; overtime carries the per-day
// multiplier.
type Costs struct {
	HourlyRate      decimal.Decimal `json:"hourly_rate"`
	OrdinaryCost    decimal.Decimal `json:"ordinary_cost"`
	OvertimePremium decimal.Decimal `json:"overtime_premium"`
	Total           decimal.Decimal `json:"total"`
}

type Totals struct {
	DaysWorked    int             `json:"days_worked"`
	OrdinaryHours decimal.Decimal `json:"ordinary_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	Costs         *Costs          `json:"costs,omitempty"`
}

// WithoutCosts returns a copy with every cost field removed.
func (s Summary) WithoutCosts() Summary {
	out := s
	out.Employees = make([]EmployeeSummary, len(s.Employees))
	for i, e := range s.Employees {
		e.Costs = nil
		out.Employees[i] = e
	}
	out.Totals.Costs = nil
	return out
}
