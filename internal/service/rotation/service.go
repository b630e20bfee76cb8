package rotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/google/uuid"
)

// rotationDays is how many days of a week, from Monday, the rotation fills.
const rotationDays = 6

// Config fixes the rotation epoch and the slot rules for the process lifetime.
type Config struct {
	Epoch   calendar.Date
	Catalog *shift.Catalog
	Rules   shift.Rules
}

type SchedulerServiceImpl struct {
	store   state.Store
	clock   clock.Clock
	loc     *time.Location
	epoch   calendar.Date
	catalog *shift.Catalog
	rules   shift.Rules
}

func NewSchedulerService(store state.Store, clk clock.Clock, loc *time.Location, cfg Config) shift.SchedulerService {
	if loc == nil {
		loc = time.UTC
	}
	if cfg.Catalog == nil {
		cfg.Catalog = shift.DefaultCatalog()
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = calendar.MustParse("2024-01-01")
	}
	return &SchedulerServiceImpl{
		store:   store,
		clock:   clk,
		loc:     loc,
		epoch:   cfg.Epoch,
		catalog: cfg.Catalog,
		rules:   cfg.Rules,
	}
}

func (s *SchedulerServiceImpl) today() calendar.Date {
	return calendar.Today(s.clock.Now(), s.loc)
}

func (s *SchedulerServiceImpl) checkSlots(slots []string) error {
	if len(slots) == 0 {
		return shift.ErrEmptyPattern
	}
	for _, t := range slots {
		if !s.catalog.Contains(t) {
			return fmt.Errorf("%w: %s", shift.ErrUnknownSlot, t)
		}
	}
	return nil
}

// AutoAssignWeek implements shift.SchedulerService. An empty pattern falls back to the
// employee's stored rotation pattern.
func (s *SchedulerServiceImpl) AutoAssignWeek(ctx context.Context, actor audit.Actor, employeeID string, pattern []string, weekStart calendar.Date) (shift.AutoAssignResult, error) {
	if !actor.Admin {
		return shift.AutoAssignResult{}, common.ErrPermissionDenied
	}
	if len(pattern) > 0 {
		if err := s.checkSlots(pattern); err != nil {
			return shift.AutoAssignResult{}, err
		}
	}

	week := weekStart.WeekStart()
	result := shift.AutoAssignResult{
		EmployeeID: employeeID,
		WeekStart:  week,
		WeekIndex:  shift.WeekIndex(s.epoch, week),
	}

	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		result.Created, result.Skipped = nil, nil

		if _, err := cur.ActiveEmployee(employeeID); err != nil {
			return nil, err
		}
		slots := pattern
		if len(slots) == 0 {
			stored, ok := cur.RotationPatterns[employeeID]
			if !ok {
				return nil, fmt.Errorf("%w: %s", shift.ErrPatternNotFound, employeeID)
			}
			if err := s.checkSlots(stored.Slots); err != nil {
				return nil, err
			}
			slots = stored.Slots
		}
		result.SlotTime = shift.Pattern{Slots: slots}.SlotForWeek(result.WeekIndex)

		now := s.clock.Now()
		for i := 0; i < rotationDays; i++ {
			date := week.AddDays(i)
			if held, ok := cur.AssignmentAt(date, result.SlotTime); ok {
				if held.EmployeeID != employeeID {
					result.Skipped = append(result.Skipped, date)
				}
				continue
			}
			// one shift per employee per day
			if len(cur.AssignmentList(shift.Filter{EmployeeID: employeeID, From: date, To: date})) > 0 {
				result.Skipped = append(result.Skipped, date)
				continue
			}
			a := shift.Assignment{
				ID:         newID(),
				EmployeeID: employeeID,
				Date:       date,
				SlotTime:   result.SlotTime,
				Source:     shift.SourceRotation,
				CreatedBy:  actor.ID,
				CreatedAt:  now,
			}
			cur.PutAssignment(a)
			result.Created = append(result.Created, a)
		}
		if len(result.Created) == 0 {
			return nil, nil
		}

		detail := fmt.Sprintf("%s assigned %s for week %d starting %s (%d days)",
			employeeID, result.SlotTime, result.WeekIndex, week, len(result.Created))
		if len(result.Skipped) > 0 {
			detail += "; skipped: " + joinDates(result.Skipped)
		}
		cur.AppendAudit(actor, audit.ActionShiftAutoAssign, detail, now)
		return cur, nil
	})
	if err != nil {
		return shift.AutoAssignResult{}, err
	}
	return result, nil
}

// RunWeeklyRotation implements shift.SchedulerService. Blocked employees are skipped; a
// failure for one employee does not stop the others.
func (s *SchedulerServiceImpl) RunWeeklyRotation(ctx context.Context, actor audit.Actor, weekStart calendar.Date) ([]shift.AutoAssignResult, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rotation patterns: %w", err)
	}

	var (
		results []shift.AutoAssignResult
		errs    []error
	)
	for _, p := range snap.PatternList() {
		if e, ok := snap.Employee(p.EmployeeID); !ok || e.Blocked {
			continue
		}
		res, err := s.AutoAssignWeek(ctx, actor, p.EmployeeID, p.Slots, weekStart)
		if err != nil {
			if state.IsRetryable(err) {
				return results, err
			}
			slog.Error("Failed to assign weekly rotation", "employee_id", p.EmployeeID, "week_start", weekStart.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.EmployeeID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// SelectShift implements shift.SchedulerService.
func (s *SchedulerServiceImpl) SelectShift(ctx context.Context, actor audit.Actor, employeeID string, slotTime string, date calendar.Date) (shift.Assignment, error) {
	if !actor.CanActFor(employeeID) {
		return shift.Assignment{}, common.ErrPermissionDenied
	}

	var created shift.Assignment
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		emp, err := cur.ActiveEmployee(employeeID)
		if err != nil {
			return nil, err
		}
		if !s.catalog.Contains(slotTime) {
			return nil, fmt.Errorf("%w: %s", shift.ErrUnknownSlot, slotTime)
		}
		if date.Before(s.today()) {
			return nil, fmt.Errorf("%w: %s", shift.ErrPastDateMutation, date)
		}
		slot := shift.Slot{Day: date.Weekday(), Time: slotTime}
		if emp.Role != employee.RoleManager && s.rules.ManagerOnly(slot) {
			return nil, fmt.Errorf("%w: %s %s", shift.ErrRoleRestrictedSlot, slot.Day, slotTime)
		}
		if held, ok := cur.AssignmentAt(date, slotTime); ok {
			if held.EmployeeID == employeeID {
				return nil, fmt.Errorf("%w: %s %s", shift.ErrDuplicateShift, date, slotTime)
			}
			return nil, fmt.Errorf("%w: %s %s", shift.ErrShiftOccupied, date, slotTime)
		}
		if s.rules.MonthlyQuota > 0 && cur.AssignmentsInMonth(employeeID, date) >= s.rules.MonthlyQuota {
			return nil, fmt.Errorf("%w: %d shifts in %s", shift.ErrMonthlyQuotaExceeded, s.rules.MonthlyQuota, date.MonthStart().String()[:7])
		}

		now := s.clock.Now()
		created = shift.Assignment{
			ID:         newID(),
			EmployeeID: employeeID,
			Date:       date,
			SlotTime:   slotTime,
			Source:     shift.SourceSelf,
			CreatedBy:  actor.ID,
			CreatedAt:  now,
		}
		cur.PutAssignment(created)
		cur.AppendAudit(actor, audit.ActionShiftSelect,
			fmt.Sprintf("%s selected %s on %s", employeeID, slotTime, date), now)
		return cur, nil
	})
	if err != nil {
		return shift.Assignment{}, err
	}
	return created, nil
}

// AdminAssignShift implements shift.SchedulerService.
func (s *SchedulerServiceImpl) AdminAssignShift(ctx context.Context, actor audit.Actor, employeeID string, date calendar.Date, slotTime *string, reason string) ([]shift.Assignment, error) {
	if !actor.Admin {
		return nil, common.ErrPermissionDenied
	}
	if slotTime != nil && !s.catalog.Contains(*slotTime) {
		return nil, fmt.Errorf("%w: %s", shift.ErrUnknownSlot, *slotTime)
	}

	var out []shift.Assignment
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		out = nil
		if _, err := cur.RequireEmployee(employeeID); err != nil {
			return nil, err
		}
		past := date.Before(s.today())
		priors := cur.AssignmentList(shift.Filter{EmployeeID: employeeID, From: date, To: date})
		now := s.clock.Now()

		if slotTime == nil {
			if past {
				return nil, fmt.Errorf("%w: %s", shift.ErrPastDateMutation, date)
			}
			if len(priors) == 0 {
				return nil, fmt.Errorf("%w: %s on %s", shift.ErrAssignmentNotFound, employeeID, date)
			}
			for _, p := range priors {
				cur.RemoveAssignment(p.Date, p.SlotTime)
			}
			cur.AppendAudit(actor, audit.ActionShiftAdminRemove,
				fmt.Sprintf("%s removed from %s, was [%s]%s", employeeID, date, describe(priors), reasonSuffix(reason)), now)
			out = priors
			return cur, nil
		}

		if held, ok := cur.AssignmentAt(date, *slotTime); ok && held.EmployeeID != employeeID {
			return nil, fmt.Errorf("%w: %s %s held by %s", shift.ErrShiftOccupied, date, *slotTime, held.EmployeeID)
		}
		if len(priors) == 1 && priors[0].SlotTime == *slotTime {
			out = priors
			return nil, nil
		}
		for _, p := range priors {
			cur.RemoveAssignment(p.Date, p.SlotTime)
		}
		a := shift.Assignment{
			ID:         newID(),
			EmployeeID: employeeID,
			Date:       date,
			SlotTime:   *slotTime,
			Source:     shift.SourceAdmin,
			CreatedBy:  actor.ID,
			CreatedAt:  now,
		}
		cur.PutAssignment(a)
		if past {
			cur.AuthorizeHistoryOverride(actor.ID, reason)
		}
		prior := "none"
		if len(priors) > 0 {
			prior = describe(priors)
		}
		cur.AppendAudit(actor, audit.ActionShiftAdminAssign,
			fmt.Sprintf("%s set to %s on %s, was [%s]%s", employeeID, *slotTime, date, prior, reasonSuffix(reason)), now)
		out = []shift.Assignment{a}
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReleaseShift implements shift.SchedulerService.
func (s *SchedulerServiceImpl) ReleaseShift(ctx context.Context, actor audit.Actor, employeeID string, slotTime string, date calendar.Date) error {
	return s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		held, ok := cur.AssignmentAt(date, slotTime)
		if !ok || held.EmployeeID != employeeID {
			return nil, fmt.Errorf("%w: %s %s %s", shift.ErrAssignmentNotFound, employeeID, date, slotTime)
		}
		if !actor.CanActFor(held.EmployeeID) {
			return nil, shift.ErrNotAssignmentOwner
		}
		if date.Before(s.today()) {
			return nil, fmt.Errorf("%w: %s", shift.ErrPastDateMutation, date)
		}
		cur.RemoveAssignment(date, slotTime)
		cur.AppendAudit(actor, audit.ActionShiftRelease,
			fmt.Sprintf("%s released %s on %s, was [%s]", employeeID, slotTime, date, describe([]shift.Assignment{held})), s.clock.Now())
		return cur, nil
	})
}

// SetRotationPattern implements shift.SchedulerService.
func (s *SchedulerServiceImpl) SetRotationPattern(ctx context.Context, actor audit.Actor, employeeID string, slots []string) (shift.Pattern, error) {
	if !actor.Admin {
		return shift.Pattern{}, common.ErrPermissionDenied
	}
	if err := s.checkSlots(slots); err != nil {
		return shift.Pattern{}, err
	}

	var p shift.Pattern
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		if _, err := cur.RequireEmployee(employeeID); err != nil {
			return nil, err
		}
		if prev, ok := cur.RotationPatterns[employeeID]; ok && slices.Equal(prev.Slots, slots) {
			p = prev.Clone()
			return nil, nil
		}
		now := s.clock.Now()
		p = shift.Pattern{EmployeeID: employeeID, Slots: append([]string(nil), slots...), UpdatedAt: now}
		cur.PutPattern(p)
		cur.AppendAudit(actor, audit.ActionRotationPatternSet,
			fmt.Sprintf("%s rotation set to [%s]", employeeID, strings.Join(slots, ", ")), now)
		return cur, nil
	})
	if err != nil {
		return shift.Pattern{}, err
	}
	return p, nil
}

func (s *SchedulerServiceImpl) RotationPatterns(ctx context.Context) ([]shift.Pattern, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rotation patterns: %w", err)
	}
	return snap.PatternList(), nil
}

func (s *SchedulerServiceImpl) GetAssignments(ctx context.Context, filter shift.Filter) ([]shift.Assignment, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}
	return snap.AssignmentList(filter), nil
}

func (s *SchedulerServiceImpl) Catalog() *shift.Catalog { return s.catalog }

func (s *SchedulerServiceImpl) Rules() shift.Rules { return s.rules }

func describe(as []shift.Assignment) string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", a.Date, a.SlotTime, a.Source))
	}
	return strings.Join(parts, "; ")
}

func joinDates(ds []calendar.Date) string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, ", ")
}

func reasonSuffix(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return ""
	}
	return "; reason: " + reason
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
