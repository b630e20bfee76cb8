package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Timestamps are stored in UTC so the text comparison in CHECK constraints orders correctly.
func utc(t time.Time) time.Time { return t.UTC() }

func loadState(ctx context.Context, q querier) (*state.State, error) {
	st := state.New()
	loaders := []func(context.Context, querier, *state.State) error{
		loadEmployees, loadAttendances, loadAssignments, loadPatterns, loadAudit,
	}
	for _, load := range loaders {
		if err := load(ctx, q, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func loadEmployees(ctx context.Context, q querier, st *state.State) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, full_name, national_id, role, blocked, hourly_rate, created_at, updated_at
		FROM employees
	`)
	if err != nil {
		return fmt.Errorf("failed to load employees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e employee.Employee
		var role, rate string
		if err := rows.Scan(&e.ID, &e.FullName, &e.NationalID, &role, &e.Blocked, &rate, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan employee: %w", err)
		}
		e.Role = employee.Role(role)
		if e.HourlyRate, err = decimal.NewFromString(rate); err != nil {
			return fmt.Errorf("invalid hourly_rate for %s: %w", e.ID, err)
		}
		st.PutEmployee(e)
	}
	return rows.Err()
}

func loadAttendances(ctx context.Context, q querier, st *state.State) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, work_date, clock_in, clock_out,
			   net_hours, ordinary_hours, overtime_hours, created_at, updated_at
		FROM attendances
	`)
	if err != nil {
		return fmt.Errorf("failed to load attendances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r attendance.Record
		var date string
		var clockOut sql.NullTime
		if err := rows.Scan(&r.ID, &r.EmployeeID, &date, &r.ClockIn, &clockOut,
			&r.NetHours, &r.OrdinaryHours, &r.OvertimeHours, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan attendance: %w", err)
		}
		if clockOut.Valid {
			out := clockOut.Time
			r.ClockOut = &out
		}
		if r.Date, err = calendar.Parse(date); err != nil {
			return err
		}
		st.PutAttendance(r)
	}
	return rows.Err()
}

func loadAssignments(ctx context.Context, q querier, st *state.State) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, work_date, slot_time, source, created_by, created_at
		FROM shift_assignments
	`)
	if err != nil {
		return fmt.Errorf("failed to load shift assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a shift.Assignment
		var date, source string
		if err := rows.Scan(&a.ID, &a.EmployeeID, &date, &a.SlotTime, &source, &a.CreatedBy, &a.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan shift assignment: %w", err)
		}
		if a.Date, err = calendar.Parse(date); err != nil {
			return err
		}
		a.Source = shift.Source(source)
		st.PutAssignment(a)
	}
	return rows.Err()
}

func loadPatterns(ctx context.Context, q querier, st *state.State) error {
	rows, err := q.QueryContext(ctx, `SELECT employee_id, slots, updated_at FROM rotation_patterns`)
	if err != nil {
		return fmt.Errorf("failed to load rotation patterns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p shift.Pattern
		var slots string
		if err := rows.Scan(&p.EmployeeID, &slots, &p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan rotation pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(slots), &p.Slots); err != nil {
			return fmt.Errorf("invalid slots for %s: %w", p.EmployeeID, err)
		}
		st.PutPattern(p)
	}
	return rows.Err()
}

func loadAudit(ctx context.Context, q querier, st *state.State) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, seq, occurred_at, actor, action, detail, origin
		FROM audit_entries
		ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("failed to load audit entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e audit.Entry
		var action string
		if err := rows.Scan(&e.ID, &e.Seq, &e.Timestamp, &e.Actor, &action, &e.Detail, &e.Origin); err != nil {
			return fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = audit.Action(action)
		st.Audit = append(st.Audit, e)
	}
	return rows.Err()
}

// applyChanges writes a changeset; removals precede inserts.
func applyChanges(ctx context.Context, q querier, cs state.Changeset) error {
	for _, e := range cs.Employees {
		_, err := q.ExecContext(ctx, `
			INSERT INTO employees (id, full_name, national_id, role, blocked, hourly_rate, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				full_name = excluded.full_name,
				national_id = excluded.national_id,
				role = excluded.role,
				blocked = excluded.blocked,
				hourly_rate = excluded.hourly_rate,
				updated_at = excluded.updated_at
		`, e.ID, e.FullName, e.NationalID, string(e.Role), e.Blocked, e.HourlyRate.String(), utc(e.CreatedAt), utc(e.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to save employee %s: %w", e.ID, err)
		}
	}

	for _, r := range cs.RemovedAttendance {
		if _, err := q.ExecContext(ctx, `DELETE FROM attendances WHERE id = ?`, r.ID); err != nil {
			return fmt.Errorf("failed to delete attendance %s: %w", r.Key(), err)
		}
	}
	for _, r := range cs.Attendance {
		var clockOut any
		if r.ClockOut != nil {
			clockOut = utc(*r.ClockOut)
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO attendances (id, employee_id, work_date, clock_in, clock_out,
				net_hours, ordinary_hours, overtime_hours, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				work_date = excluded.work_date,
				clock_in = excluded.clock_in,
				clock_out = excluded.clock_out,
				net_hours = excluded.net_hours,
				ordinary_hours = excluded.ordinary_hours,
				overtime_hours = excluded.overtime_hours,
				updated_at = excluded.updated_at
		`, r.ID, r.EmployeeID, r.Date.String(), utc(r.ClockIn), clockOut,
			r.NetHours, r.OrdinaryHours, r.OvertimeHours, utc(r.CreatedAt), utc(r.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to save attendance %s: %w", r.Key(), err)
		}
	}

	for _, a := range cs.RemovedAssignments {
		if _, err := q.ExecContext(ctx, `DELETE FROM shift_assignments WHERE id = ?`, a.ID); err != nil {
			return fmt.Errorf("failed to delete shift assignment %s: %w", a.Key(), err)
		}
	}
	for _, a := range cs.AddedAssignments {
		_, err := q.ExecContext(ctx, `
			INSERT INTO shift_assignments (id, employee_id, work_date, slot_time, source, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.EmployeeID, a.Date.String(), a.SlotTime, string(a.Source), a.CreatedBy, utc(a.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to save shift assignment %s: %w", a.Key(), err)
		}
	}

	for _, id := range cs.RemovedPatterns {
		if _, err := q.ExecContext(ctx, `DELETE FROM rotation_patterns WHERE employee_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete rotation pattern %s: %w", id, err)
		}
	}
	for _, p := range cs.Patterns {
		slots, err := json.Marshal(p.Slots)
		if err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO rotation_patterns (employee_id, slots, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (employee_id) DO UPDATE SET slots = excluded.slots, updated_at = excluded.updated_at
		`, p.EmployeeID, string(slots), utc(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to save rotation pattern %s: %w", p.EmployeeID, err)
		}
	}

	for _, e := range cs.Audit {
		_, err := q.ExecContext(ctx, `
			INSERT INTO audit_entries (seq, id, occurred_at, actor, action, detail, origin)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.Seq, e.ID, utc(e.Timestamp), e.Actor, string(e.Action), e.Detail, e.Origin)
		if err != nil {
			return fmt.Errorf("failed to append audit entry %d: %w", e.Seq, err)
		}
	}
	return nil
}

func appendLedger(ctx context.Context, q querier, entry state.LedgerEntry, loc *time.Location) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	local := entry.SavedAt.In(loc)
	_, err = q.ExecContext(ctx, `
		INSERT INTO state_ledger (saved_at, save_month, save_day, changes)
		VALUES (?, ?, ?, ?)
	`, utc(entry.SavedAt), int(local.Month()), local.Day(), string(changes))
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func loadLedger(ctx context.Context, q querier, month time.Month, day int) ([]state.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT saved_at, changes
		FROM state_ledger
		WHERE save_month = ? AND save_day = ?
		ORDER BY id
	`, int(month), day)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer rows.Close()

	entries := []state.LedgerEntry{}
	for rows.Next() {
		var e state.LedgerEntry
		var changes string
		if err := rows.Scan(&e.SavedAt, &changes); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if err := json.Unmarshal([]byte(changes), &e.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
