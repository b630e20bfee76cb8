package timeclock

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const detailLayout = "2006-01-02 15:04:05 MST"

type TimeClockServiceImpl struct {
	store  state.Store
	clock  clock.Clock
	loc    *time.Location
	policy Policy
}

func NewTimeClockService(store state.Store, clk clock.Clock, loc *time.Location, policy Policy) attendance.TimeClockService {
	if loc == nil {
		loc = time.UTC
	}
	return &TimeClockServiceImpl{
		store:  store,
		clock:  clk,
		loc:    loc,
		policy: policy,
	}
}

// ClockIn implements attendance.TimeClockService.
func (s *TimeClockServiceImpl) ClockIn(ctx context.Context, actor audit.Actor, employeeID string, ts time.Time) (attendance.Record, error) {
	if !actor.CanActFor(employeeID) {
		return attendance.Record{}, common.ErrPermissionDenied
	}
	var rec attendance.Record
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		var err error
		rec, err = s.clockIn(cur, actor, employeeID, ts)
		if err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

// ClockOut implements attendance.TimeClockService.
func (s *TimeClockServiceImpl) ClockOut(ctx context.Context, actor audit.Actor, employeeID string, ts time.Time) (attendance.Record, error) {
	if !actor.CanActFor(employeeID) {
		return attendance.Record{}, common.ErrPermissionDenied
	}
	var rec attendance.Record
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		var err error
		rec, err = s.clockOut(cur, actor, employeeID, ts)
		if err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

// SmartToggle implements attendance.TimeClockService.
func (s *TimeClockServiceImpl) SmartToggle(ctx context.Context, actor audit.Actor, employeeID string, ts *time.Time) (attendance.ToggleResult, error) {
	if !actor.CanActFor(employeeID) {
		return attendance.ToggleResult{}, common.ErrPermissionDenied
	}
	at := s.clock.Now()
	if ts != nil {
		at = *ts
	}

	var result attendance.ToggleResult
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		var err error
		if _, open := s.openRecord(cur, employeeID, at); open {
			result.Action = audit.ActionClockOut
			result.Record, err = s.clockOut(cur, actor, employeeID, at)
		} else {
			result.Action = audit.ActionClockIn
			result.Record, err = s.clockIn(cur, actor, employeeID, at)
		}
		if err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return attendance.ToggleResult{}, err
	}
	return result, nil
}

func (s *TimeClockServiceImpl) clockIn(cur *state.State, actor audit.Actor, employeeID string, ts time.Time) (attendance.Record, error) {
	if _, err := cur.ActiveEmployee(employeeID); err != nil {
		return attendance.Record{}, err
	}
	date := calendar.Of(ts.In(s.loc))
	if _, exists := cur.AttendanceFor(employeeID, date); exists {
		return attendance.Record{}, fmt.Errorf("%w: %s on %s", attendance.ErrDuplicateClockIn, employeeID, date)
	}

	now := s.clock.Now()
	rec := attendance.Record{
		ID:         newID(),
		EmployeeID: employeeID,
		Date:       date,
		ClockIn:    ts,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	cur.PutAttendance(rec)
	cur.AppendAudit(actor, audit.ActionClockIn,
		fmt.Sprintf("%s clocked in at %s", employeeID, ts.In(s.loc).Format(detailLayout)), now)
	return rec, nil
}

func (s *TimeClockServiceImpl) clockOut(cur *state.State, actor audit.Actor, employeeID string, ts time.Time) (attendance.Record, error) {
	if _, err := cur.RequireEmployee(employeeID); err != nil {
		return attendance.Record{}, err
	}
	rec, ok := s.openRecord(cur, employeeID, ts)
	if !ok {
		return attendance.Record{}, fmt.Errorf("%w: %s on %s", attendance.ErrNoOpenClockIn, employeeID, calendar.Of(ts.In(s.loc)))
	}
	if ts.Before(rec.ClockIn) {
		return attendance.Record{}, fmt.Errorf("%w: %s is before %s", attendance.ErrClockOutBeforeIn,
			ts.In(s.loc).Format(detailLayout), rec.ClockIn.In(s.loc).Format(detailLayout))
	}

	now := s.clock.Now()
	s.close(&rec, ts)
	rec.UpdatedAt = now
	cur.PutAttendance(rec)
	cur.AppendAudit(actor, audit.ActionClockOut,
		fmt.Sprintf("%s clocked out at %s (net %.2fh, ordinary %.2fh, overtime %.2fh)",
			employeeID, ts.In(s.loc).Format(detailLayout), rec.NetHours, rec.OrdinaryHours, rec.OvertimeHours), now)
	return rec, nil
}

// openRecord finds the record a clock-out at ts closes: the open record dated ts's day,
// or an overnight record from the day before whose clock-in is within Policy.MaxShift.
func (s *TimeClockServiceImpl) openRecord(cur *state.State, employeeID string, ts time.Time) (attendance.Record, bool) {
	date := calendar.Of(ts.In(s.loc))
	if rec, ok := cur.OpenAttendanceOn(employeeID, date); ok {
		return rec, true
	}
	if _, ok := cur.AttendanceFor(employeeID, date); ok {
		return attendance.Record{}, false
	}
	rec, ok := cur.OpenAttendanceOn(employeeID, date.AddDays(-1))
	if !ok || ts.Before(rec.ClockIn) || ts.Sub(rec.ClockIn) > s.policy.MaxShift {
		return attendance.Record{}, false
	}
	return rec, true
}

// close sets the clock-out and the derived hours.
func (s *TimeClockServiceImpl) close(rec *attendance.Record, out time.Time) {
	h := s.policy.Split(rec.ClockIn, out)
	rec.ClockOut = &out
	rec.NetHours = h.Net.InexactFloat64()
	rec.OrdinaryHours = h.Ordinary.InexactFloat64()
	rec.OvertimeHours = h.Overtime.InexactFloat64()
}

// ComputeOvertimePremium implements attendance.TimeClockService.
func (s *TimeClockServiceImpl) ComputeOvertimePremium(record attendance.Record, date calendar.Date, hourlyRate decimal.Decimal) decimal.Decimal {
	return s.policy.Premium(decimal.NewFromFloat(record.OvertimeHours), date.Weekday(), hourlyRate)
}

// AdminCorrect implements attendance.TimeClockService.
func (s *TimeClockServiceImpl) AdminCorrect(ctx context.Context, actor audit.Actor, employeeID string, date calendar.Date, req attendance.CorrectRequest) (attendance.Record, error) {
	if !actor.Admin {
		return attendance.Record{}, common.ErrPermissionDenied
	}
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}
	in, err := attendance.ParseTimestamp(req.ClockIn, s.loc)
	if err != nil {
		return attendance.Record{}, err
	}
	if calendar.Of(in.In(s.loc)) != date {
		return attendance.Record{}, fmt.Errorf("%w: clock-in %s is not on %s", attendance.ErrInvalidTimestamp, req.ClockIn, date)
	}
	var out *time.Time
	if req.ClockOut != nil {
		t, err := attendance.ParseTimestamp(*req.ClockOut, s.loc)
		if err != nil {
			return attendance.Record{}, err
		}
		if t.Before(in) {
			return attendance.Record{}, fmt.Errorf("%w: %s is before %s", attendance.ErrClockOutBeforeIn, *req.ClockOut, req.ClockIn)
		}
		out = &t
	}

	var rec attendance.Record
	err = s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		if _, err := cur.RequireEmployee(employeeID); err != nil {
			return nil, err
		}
		now := s.clock.Now()
		prior, existed := cur.AttendanceFor(employeeID, date)

		rec = attendance.Record{
			ID:         newID(),
			EmployeeID: employeeID,
			Date:       date,
			ClockIn:    in,
			CreatedAt:  now,
		}
		if existed {
			rec.ID = prior.ID
			rec.CreatedAt = prior.CreatedAt
		}
		if out != nil {
			s.close(&rec, *out)
		}
		rec.UpdatedAt = now

		priorText := "none"
		if existed {
			priorText = s.describe(prior)
		}
		cur.PutAttendance(rec)
		cur.AuthorizeHistoryOverride(actor.ID, req.Reason)
		cur.AppendAudit(actor, audit.ActionAttendanceCorrect,
			fmt.Sprintf("%s %s corrected to [%s], was [%s]; reason: %s", employeeID, date, s.describe(rec), priorText, req.Reason), now)
		return cur, nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

// AdminDelete implements attendance.TimeClockService.
func (s *TimeClockServiceImpl) AdminDelete(ctx context.Context, actor audit.Actor, employeeID string, date calendar.Date, reason string) error {
	if !actor.Admin {
		return common.ErrPermissionDenied
	}
	return s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		prior, ok := cur.AttendanceFor(employeeID, date)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", attendance.ErrAttendanceNotFound, employeeID, date)
		}
		cur.DeleteAttendance(employeeID, date)
		cur.AuthorizeHistoryOverride(actor.ID, reason)
		cur.AppendAudit(actor, audit.ActionAttendanceDelete,
			fmt.Sprintf("%s %s deleted, was [%s]; reason: %s", employeeID, date, s.describe(prior), reason), s.clock.Now())
		return cur, nil
	})
}

// List implements attendance.TimeClockService.
func (s *TimeClockServiceImpl) List(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance: %w", err)
	}
	return snap.AttendanceList(filter), nil
}

func (s *TimeClockServiceImpl) Location() *time.Location {
	return s.loc
}

func (s *TimeClockServiceImpl) describe(r attendance.Record) string {
	out := "open"
	if r.ClockOut != nil {
		out = r.ClockOut.In(s.loc).Format(detailLayout)
	}
	return fmt.Sprintf("in %s, out %s, net %.2fh", r.ClockIn.In(s.loc).Format(detailLayout), out, r.NetHours)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
