package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/google/uuid"
)

const DocumentVersion = 1

// State is the whole persisted data set. Mutations receive a private deep copy.
//
// Attendance is keyed by attendance.Key (employee/date) and Assignments by shift.Key
// (date/slot), so the uniqueness invariants hold structurally.
type State struct {
	Version          int                          `json:"version"`
	Employees        map[string]employee.Employee `json:"employees"`
	Attendance       map[string]attendance.Record `json:"attendance"`
	Assignments      map[string]shift.Assignment  `json:"assignments"`
	RotationPatterns map[string]shift.Pattern     `json:"rotation_patterns"`
	Audit            []audit.Entry                `json:"audit"`

	override *Override
}

// Override is an authorization to rewrite history in the current commit.
type Override struct {
	Actor  string
	Reason string
}

func New() *State {
	return &State{
		Version:          DocumentVersion,
		Employees:        make(map[string]employee.Employee),
		Attendance:       make(map[string]attendance.Record),
		Assignments:      make(map[string]shift.Assignment),
		RotationPatterns: make(map[string]shift.Pattern),
		Audit:            []audit.Entry{},
	}
}

// Normalize fills nil collections after decoding.
func (s *State) Normalize() *State {
	if s.Employees == nil {
		s.Employees = make(map[string]employee.Employee)
	}
	if s.Attendance == nil {
		s.Attendance = make(map[string]attendance.Record)
	}
	if s.Assignments == nil {
		s.Assignments = make(map[string]shift.Assignment)
	}
	if s.RotationPatterns == nil {
		s.RotationPatterns = make(map[string]shift.Pattern)
	}
	if s.Audit == nil {
		s.Audit = []audit.Entry{}
	}
	if s.Version == 0 {
		s.Version = DocumentVersion
	}
	return s
}

// Clone returns a deep copy. The pending override is not carried over.
func (s *State) Clone() *State {
	c := &State{
		Version:          s.Version,
		Employees:        make(map[string]employee.Employee, len(s.Employees)),
		Attendance:       make(map[string]attendance.Record, len(s.Attendance)),
		Assignments:      make(map[string]shift.Assignment, len(s.Assignments)),
		RotationPatterns: make(map[string]shift.Pattern, len(s.RotationPatterns)),
		Audit:            append([]audit.Entry{}, s.Audit...),
	}
	for k, v := range s.Employees {
		c.Employees[k] = v
	}
	for k, v := range s.Attendance {
		c.Attendance[k] = v.Clone()
	}
	for k, v := range s.Assignments {
		c.Assignments[k] = v
	}
	for k, v := range s.RotationPatterns {
		c.RotationPatterns[k] = v.Clone()
	}
	return c
}

// AuthorizeHistoryOverride lets this commit change records dated before today. The
// commit must also append at least one audit entry or the store rejects it.
func (s *State) AuthorizeHistoryOverride(actor, reason string) {
	s.override = &Override{Actor: actor, Reason: reason}
}

func (s *State) HistoryOverride() *Override {
	return s.override
}

// AppendAudit adds an entry stamped at and sequenced after the current tail.
func (s *State) AppendAudit(actor audit.Actor, action audit.Action, detail string, at time.Time) audit.Entry {
	var seq int64 = 1
	if n := len(s.Audit); n > 0 {
		seq = s.Audit[n-1].Seq + 1
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	e := audit.Entry{
		ID:        id.String(),
		Seq:       seq,
		Timestamp: at,
		Actor:     actor.ID,
		Action:    action,
		Detail:    detail,
		Origin:    actor.Origin,
	}
	s.Audit = append(s.Audit, e)
	return e
}

func (s *State) Employee(id string) (employee.Employee, bool) {
	e, ok := s.Employees[id]
	return e, ok
}

// RequireEmployee returns the employee or ErrEmployeeNotFound.
func (s *State) RequireEmployee(id string) (employee.Employee, error) {
	e, ok := s.Employees[id]
	if !ok {
		return employee.Employee{}, fmt.Errorf("%w: %s", employee.ErrEmployeeNotFound, id)
	}
	return e, nil
}

// ActiveEmployee is RequireEmployee that also refuses blocked employees.
func (s *State) ActiveEmployee(id string) (employee.Employee, error) {
	e, err := s.RequireEmployee(id)
	if err != nil {
		return employee.Employee{}, err
	}
	if e.Blocked {
		return employee.Employee{}, fmt.Errorf("%w: %s", employee.ErrEmployeeBlocked, id)
	}
	return e, nil
}

func (s *State) PutEmployee(e employee.Employee) {
	s.Employees[e.ID] = e
}

// EmployeeList returns employees sorted by ID.
func (s *State) EmployeeList() []employee.Employee {
	out := make([]employee.Employee, 0, len(s.Employees))
	for _, e := range s.Employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *State) AttendanceFor(employeeID string, date calendar.Date) (attendance.Record, bool) {
	r, ok := s.Attendance[attendance.Key(employeeID, date)]
	return r, ok
}

// OpenAttendanceOn returns the employee's record for date when it has no clock-out yet.
func (s *State) OpenAttendanceOn(employeeID string, date calendar.Date) (attendance.Record, bool) {
	r, ok := s.AttendanceFor(employeeID, date)
	if !ok || !r.Open() {
		return attendance.Record{}, false
	}
	return r, true
}

func (s *State) PutAttendance(r attendance.Record) {
	s.Attendance[r.Key()] = r
}

func (s *State) DeleteAttendance(employeeID string, date calendar.Date) {
	delete(s.Attendance, attendance.Key(employeeID, date))
}

// AttendanceList returns matching records ordered by date, then employee.
func (s *State) AttendanceList(filter attendance.Filter) []attendance.Record {
	out := make([]attendance.Record, 0)
	for _, r := range s.Attendance {
		if filter.Match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (s *State) AssignmentAt(date calendar.Date, slotTime string) (shift.Assignment, bool) {
	a, ok := s.Assignments[shift.Key(date, slotTime)]
	return a, ok
}

func (s *State) PutAssignment(a shift.Assignment) {
	s.Assignments[a.Key()] = a
}

func (s *State) RemoveAssignment(date calendar.Date, slotTime string) {
	delete(s.Assignments, shift.Key(date, slotTime))
}

// AssignmentList returns matching assignments ordered by date, then slot time.
func (s *State) AssignmentList(filter shift.Filter) []shift.Assignment {
	out := make([]shift.Assignment, 0)
	for _, a := range s.Assignments {
		if filter.Match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].SlotTime < out[j].SlotTime
	})
	return out
}

// AssignmentsInMonth counts every assignment the employee holds in date's calendar month.
func (s *State) AssignmentsInMonth(employeeID string, date calendar.Date) int {
	n := 0
	for _, a := range s.Assignments {
		if a.EmployeeID == employeeID && a.Date.SameMonth(date) {
			n++
		}
	}
	return n
}

func (s *State) PutPattern(p shift.Pattern) {
	s.RotationPatterns[p.EmployeeID] = p
}

// PatternList returns stored patterns sorted by employee.
func (s *State) PatternList() []shift.Pattern {
	out := make([]shift.Pattern, 0, len(s.RotationPatterns))
	for _, p := range s.RotationPatterns {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}
