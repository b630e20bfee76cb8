package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCollaborator Role = "collaborator"
	RoleManager      Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleCollaborator || r == RoleManager
}

// Employee is never hard-deleted; Blocked is the soft delete.
type Employee struct {
	ID         string          `json:"id"`
	FullName   string          `json:"full_name"`
	NationalID string          `json:"national_id"`
	Role       Role            `json:"role"`
	Blocked    bool            `json:"blocked"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (e Employee) Equal(o Employee) bool {
	return e.ID == o.ID &&
		e.FullName == o.FullName &&
		e.NationalID == o.NationalID &&
		e.Role == o.Role &&
		e.Blocked == o.Blocked &&
		e.HourlyRate.Equal(o.HourlyRate) &&
		e.CreatedAt.Equal(o.CreatedAt) &&
		e.UpdatedAt.Equal(o.UpdatedAt)
}
