package attendance

import (
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
)

// Record is the single attendance line of one employee on one date.
// Hours are decimal hours rounded to two places.
type Record struct {
	ID            string        `json:"id"`
	EmployeeID    string        `json:"employee_id"`
	Date          calendar.Date `json:"date"`
	ClockIn       time.Time     `json:"clock_in"`
	ClockOut      *time.Time    `json:"clock_out,omitempty"`
	NetHours      float64       `json:"net_hours"`
	OrdinaryHours float64       `json:"ordinary_hours"`
	OvertimeHours float64       `json:"overtime_hours"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Open reports whether the record still waits for its clock-out.
func (r Record) Open() bool {
	return r.ClockOut == nil
}

// Clone returns a copy that shares no pointers with r.
func (r Record) Clone() Record {
	if r.ClockOut != nil {
		out := *r.ClockOut
		r.ClockOut = &out
	}
	return r
}

func (r Record) Equal(o Record) bool {
	if (r.ClockOut == nil) != (o.ClockOut == nil) {
		return false
	}
	if r.ClockOut != nil && !r.ClockOut.Equal(*o.ClockOut) {
		return false
	}
	return r.ID == o.ID &&
		r.EmployeeID == o.EmployeeID &&
		r.Date == o.Date &&
		r.ClockIn.Equal(o.ClockIn) &&
		r.NetHours == o.NetHours &&
		r.OrdinaryHours == o.OrdinaryHours &&
		r.OvertimeHours == o.OvertimeHours &&
		r.CreatedAt.Equal(o.CreatedAt) &&
		r.UpdatedAt.Equal(o.UpdatedAt)
}

// Key is the unique (employee, date) identity of a record.
func Key(employeeID string, date calendar.Date) string {
	return employeeID + "/" + date.String()
}

func (r Record) Key() string {
	return Key(r.EmployeeID, r.Date)
}
