package state

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
)

// CheckHistory is the single gate every commit passes through. Records dated before
// today may not be removed or changed unless next carries an audited override;
// finalizing an open record (setting its clock-out) is not a change of history.
// Employees are never removed and the audit log only grows.
func CheckHistory(old, next *State, today calendar.Date) error {
	for id := range old.Employees {
		if _, ok := next.Employees[id]; !ok {
			return fmt.Errorf("%w: %s", ErrEmployeeDeletion, id)
		}
	}

	if err := checkAuditAppendOnly(old.Audit, next.Audit); err != nil {
		return err
	}

	overridden := false
	if next.override != nil {
		if len(next.Audit) == len(old.Audit) {
			return ErrOverrideNotAudited
		}
		overridden = true
	}
	if overridden {
		return nil
	}

	for key, prev := range old.Attendance {
		if !prev.Date.Before(today) {
			continue
		}
		cur, ok := next.Attendance[key]
		if !ok {
			return fmt.Errorf("%w: attendance %s removed", ErrPastDateMutation, key)
		}
		if cur.Equal(prev) {
			continue
		}
		finalized := prev.Open() && !cur.Open() &&
			cur.ID == prev.ID && cur.ClockIn.Equal(prev.ClockIn)
		if !finalized {
			return fmt.Errorf("%w: attendance %s changed", ErrPastDateMutation, key)
		}
	}

	for key, prev := range old.Assignments {
		if !prev.Date.Before(today) {
			continue
		}
		cur, ok := next.Assignments[key]
		if !ok {
			return fmt.Errorf("%w: assignment %s removed", ErrPastDateMutation, key)
		}
		if !cur.Equal(prev) {
			return fmt.Errorf("%w: assignment %s changed", ErrPastDateMutation, key)
		}
	}

	return nil
}

func checkAuditAppendOnly(old, next []audit.Entry) error {
	if len(next) < len(old) {
		return ErrAuditTampering
	}
	for i := range old {
		a, b := old[i], next[i]
		if a.ID != b.ID || a.Seq != b.Seq || !a.Timestamp.Equal(b.Timestamp) ||
			a.Actor != b.Actor || a.Action != b.Action || a.Detail != b.Detail || a.Origin != b.Origin {
			return fmt.Errorf("%w: entry %d", ErrAuditTampering, a.Seq)
		}
	}
	var last int64
	if len(old) > 0 {
		last = old[len(old)-1].Seq
	}
	for _, e := range next[len(old):] {
		if e.Seq <= last {
			return fmt.Errorf("%w: sequence %d out of order", ErrAuditTampering, e.Seq)
		}
		last = e.Seq
	}
	return nil
}

// Commit is the outcome of running one mutation against a loaded state.
type Commit struct {
	Next    *State
	Changes Changeset
	Entry   LedgerEntry
}

// Apply runs fn on a deep copy of current and validates the result. It returns a nil
// Commit when fn asked for no write or changed nothing. Backends call it while holding
// their exclusive lock and persist Commit.Next or Commit.Changes.
func Apply(current *State, fn Mutation, now time.Time, loc *time.Location) (*Commit, error) {
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, nil
	}
	next.Normalize()

	if err := CheckHistory(current, next, calendar.Today(now, loc)); err != nil {
		return nil, err
	}

	cs := Diff(current, next)
	if cs.Empty() {
		return nil, nil
	}

	next.Version = DocumentVersion
	next.override = nil
	return &Commit{
		Next:    next,
		Changes: cs,
		Entry:   LedgerEntry{SavedAt: now, Changes: cs},
	}, nil
}
