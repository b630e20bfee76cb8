package audit

import "time"

// Action names the kind of change an entry records.
type Action string

const (
	ActionClockIn            Action = "clock_in"
	ActionClockOut           Action = "clock_out"
	ActionAttendanceCorrect  Action = "attendance_correct"
	ActionAttendanceDelete   Action = "attendance_delete"
	ActionShiftAutoAssign    Action = "shift_auto_assign"
	ActionShiftSelect        Action = "shift_select"
	ActionShiftRelease       Action = "shift_release"
	ActionShiftAdminAssign   Action = "shift_admin_assign"
	ActionShiftAdminRemove   Action = "shift_admin_remove"
	ActionRotationPatternSet Action = "rotation_pattern_set"
	ActionEmployeeRegister   Action = "employee_register"
	ActionEmployeeUpdate     Action = "employee_update"
	ActionEmployeeBlock      Action = "employee_block"
	ActionEmployeeUnblock    Action = "employee_unblock"
	ActionNote               Action = "note"
)

// Entry is one immutable line of the audit log.
type Entry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	Detail    string    `json:"detail"`
	Origin    string    `json:"origin,omitempty"`
}

// Actor identifies who triggers an operation. Admin is taken from the caller's
// credentials; the core does not authenticate.
type Actor struct {
	ID     string `json:"id"`
	Admin  bool   `json:"admin"`
	Origin string `json:"origin,omitempty"`
}

// System is the actor used by scheduled jobs and the CLI.
func System(origin string) Actor {
	return Actor{ID: "system", Admin: true, Origin: origin}
}

// CanActFor reports whether the actor may operate on employeeID's records.
func (a Actor) CanActFor(employeeID string) bool {
	return a.Admin || a.ID == employeeID
}
