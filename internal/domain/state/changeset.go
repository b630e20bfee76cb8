package state

import (
	"sort"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
)

// Changeset is what one commit changed. Backends persist it incrementally and the
// ledger keeps it as the save-time snapshot of touched records.
type Changeset struct {
	Employees          []employee.Employee `json:"employees,omitempty"`
	Attendance         []attendance.Record `json:"attendance,omitempty"`
	RemovedAttendance  []attendance.Record `json:"removed_attendance,omitempty"`
	AddedAssignments   []shift.Assignment  `json:"added_assignments,omitempty"`
	RemovedAssignments []shift.Assignment  `json:"removed_assignments,omitempty"`
	Patterns           []shift.Pattern     `json:"patterns,omitempty"`
	RemovedPatterns    []string            `json:"removed_patterns,omitempty"`
	Audit              []audit.Entry       `json:"audit,omitempty"`
}

func (c Changeset) Empty() bool {
	return len(c.Employees) == 0 &&
		len(c.Attendance) == 0 &&
		len(c.RemovedAttendance) == 0 &&
		len(c.AddedAssignments) == 0 &&
		len(c.RemovedAssignments) == 0 &&
		len(c.Patterns) == 0 &&
		len(c.RemovedPatterns) == 0 &&
		len(c.Audit) == 0
}

// Diff computes the changes from old to next. A reassigned slot shows up as a removal
// plus an addition. Slices are sorted by key so the output is deterministic.
func Diff(old, next *State) Changeset {
	var cs Changeset

	for id, e := range next.Employees {
		if prev, ok := old.Employees[id]; !ok || !prev.Equal(e) {
			cs.Employees = append(cs.Employees, e)
		}
	}
	sort.Slice(cs.Employees, func(i, j int) bool { return cs.Employees[i].ID < cs.Employees[j].ID })

	for k, r := range next.Attendance {
		if prev, ok := old.Attendance[k]; !ok || !prev.Equal(r) {
			cs.Attendance = append(cs.Attendance, r.Clone())
		}
	}
	for k, r := range old.Attendance {
		if _, ok := next.Attendance[k]; !ok {
			cs.RemovedAttendance = append(cs.RemovedAttendance, r.Clone())
		}
	}
	sortRecords(cs.Attendance)
	sortRecords(cs.RemovedAttendance)

	for k, a := range next.Assignments {
		if prev, ok := old.Assignments[k]; !ok || !prev.Equal(a) {
			cs.AddedAssignments = append(cs.AddedAssignments, a)
		}
	}
	for k, a := range old.Assignments {
		if cur, ok := next.Assignments[k]; !ok || !cur.Equal(a) {
			cs.RemovedAssignments = append(cs.RemovedAssignments, a)
		}
	}
	sortAssignments(cs.AddedAssignments)
	sortAssignments(cs.RemovedAssignments)

	for id, p := range next.RotationPatterns {
		if prev, ok := old.RotationPatterns[id]; !ok || !prev.Equal(p) {
			cs.Patterns = append(cs.Patterns, p.Clone())
		}
	}
	for id := range old.RotationPatterns {
		if _, ok := next.RotationPatterns[id]; !ok {
			cs.RemovedPatterns = append(cs.RemovedPatterns, id)
		}
	}
	sort.Slice(cs.Patterns, func(i, j int) bool { return cs.Patterns[i].EmployeeID < cs.Patterns[j].EmployeeID })
	sort.Strings(cs.RemovedPatterns)

	if len(next.Audit) > len(old.Audit) {
		cs.Audit = append([]audit.Entry{}, next.Audit[len(old.Audit):]...)
	}

	return cs
}

func sortRecords(rs []attendance.Record) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Key() < rs[j].Key() })
}

func sortAssignments(as []shift.Assignment) {
	sort.Slice(as, func(i, j int) bool { return as[i].Key() < as[j].Key() })
}
