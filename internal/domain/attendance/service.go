package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// TimeClockService records punches and derives worked, ordinary and overtime hours.
type TimeClockService interface {
	// ClockIn opens the record for ts's date. Fails with ErrDuplicateClockIn when the
	// employee already clocked in that day.
	ClockIn(ctx context.Context, actor audit.Actor, employeeID string, ts time.Time) (Record, error)

	// ClockOut closes the open record for the day of ts (or an overnight one from the day
	// before) and computes its hours.
	ClockOut(ctx context.Context, actor audit.Actor, employeeID string, ts time.Time) (Record, error)

	// SmartToggle clocks out when a record is open, otherwise clocks in, in one exclusive step.
	// A nil ts means now.
	SmartToggle(ctx context.Context, actor audit.Actor, employeeID string, ts *time.Time) (ToggleResult, error)

	// ComputeOvertimePremium prices the record's overtime for the day type of date.
	ComputeOvertimePremium(record Record, date calendar.Date, hourlyRate decimal.Decimal) decimal.Decimal

	// AdminCorrect rewrites a day's punches; the prior value goes to the audit log.
	AdminCorrect(ctx context.Context, actor audit.Actor, employeeID string, date calendar.Date, req CorrectRequest) (Record, error)

	// AdminDelete removes a day's record; the prior value goes to the audit log.
	AdminDelete(ctx context.Context, actor audit.Actor, employeeID string, date calendar.Date, reason string) error

	List(ctx context.Context, filter Filter) ([]Record, error)

	// Location is the zone dates and naive timestamps are read in.
	Location() *time.Location
}
