package shift

import (
	"context"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
)

// SchedulerService assigns employees to weekly shift slots.
type SchedulerService interface {
	// AutoAssignWeek places the employee on the pattern's slot for weekStart's week,
	// Monday through Saturday, skipping dates whose slot is already held or on which the
	// employee already has a shift. Idempotent.
	AutoAssignWeek(ctx context.Context, actor audit.Actor, employeeID string, pattern []string, weekStart calendar.Date) (AutoAssignResult, error)

	// RunWeeklyRotation applies every stored pattern to weekStart's week.
	RunWeeklyRotation(ctx context.Context, actor audit.Actor, weekStart calendar.Date) ([]AutoAssignResult, error)

	// SelectShift lets an employee take a free slot subject to role, conflict and quota rules.
	SelectShift(ctx context.Context, actor audit.Actor, employeeID string, slotTime string, date calendar.Date) (Assignment, error)

	// AdminAssignShift replaces (slotTime set) or removes (nil) the employee's shift on date.
	AdminAssignShift(ctx context.Context, actor audit.Actor, employeeID string, date calendar.Date, slotTime *string, reason string) ([]Assignment, error)

	// ReleaseShift frees a held slot; only its owner or an admin may do so.
	ReleaseShift(ctx context.Context, actor audit.Actor, employeeID string, slotTime string, date calendar.Date) error

	SetRotationPattern(ctx context.Context, actor audit.Actor, employeeID string, slots []string) (Pattern, error)
	RotationPatterns(ctx context.Context) ([]Pattern, error)

	GetAssignments(ctx context.Context, filter Filter) ([]Assignment, error)
	Catalog() *Catalog
	Rules() Rules
}
