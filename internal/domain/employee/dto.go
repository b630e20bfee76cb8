package employee

import (
	"strings"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// NormalizeID returns the canonical (NFC, trimmed) form of an employee ID so that
// visually identical IDs compare equal.
func NormalizeID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

type RegisterRequest struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Role       string `json:"role"`
	HourlyRate string `json:"hourly_rate"`

	rate decimal.Decimal
}

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	r.ID = NormalizeID(r.ID)
	r.FullName = norm.NFC.String(strings.TrimSpace(r.FullName))
	r.NationalID = strings.TrimSpace(r.NationalID)

	if !validator.IsValidEmployeeID(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id must be 3-50 letters, digits, '.', '_' or '-'",
		})
	}
	if validator.IsEmpty(r.FullName) {
		errs = append(errs, validator.ValidationError{
			Field:   "full_name",
			Message: "full_name is required",
		})
	}
	if r.NationalID != "" && !validator.IsValidNationalID(r.NationalID) {
		errs = append(errs, validator.ValidationError{
			Field:   "national_id",
			Message: "national_id must be 5-15 digits",
		})
	}
	if r.Role == "" {
		r.Role = string(RoleCollaborator)
	}
	if !Role(r.Role).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: ErrInvalidRole.Error(),
		})
	}
	rate, ok := validator.ParseNonNegativeDecimal(r.HourlyRate)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "hourly_rate",
			Message: "hourly_rate must be a non-negative number",
		})
	}
	r.rate = rate

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Rate returns the parsed hourly rate; valid after Validate.
func (r *RegisterRequest) Rate() decimal.Decimal {
	return r.rate
}

type UpdateRequest struct {
	FullName   *string `json:"full_name,omitempty"`
	NationalID *string `json:"national_id,omitempty"`
	Role       *string `json:"role,omitempty"`
	HourlyRate *string `json:"hourly_rate,omitempty"`

	rate *decimal.Decimal
}

func (r *UpdateRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.FullName != nil {
		name := norm.NFC.String(strings.TrimSpace(*r.FullName))
		r.FullName = &name
		if validator.IsEmpty(name) {
			errs = append(errs, validator.ValidationError{
				Field:   "full_name",
				Message: "full_name cannot be empty",
			})
		}
	}
	if r.NationalID != nil && *r.NationalID != "" && !validator.IsValidNationalID(*r.NationalID) {
		errs = append(errs, validator.ValidationError{
			Field:   "national_id",
			Message: "national_id must be 5-15 digits",
		})
	}
	if r.Role != nil && !Role(*r.Role).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: ErrInvalidRole.Error(),
		})
	}
	if r.HourlyRate != nil {
		rate, ok := validator.ParseNonNegativeDecimal(*r.HourlyRate)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "hourly_rate",
				Message: "hourly_rate must be a non-negative number",
			})
		}
		r.rate = &rate
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply copies the requested changes onto e.
func (r *UpdateRequest) Apply(e *Employee) {
	if r.FullName != nil {
		e.FullName = *r.FullName
	}
	if r.NationalID != nil {
		e.NationalID = *r.NationalID
	}
	if r.Role != nil {
		e.Role = Role(*r.Role)
	}
	if r.rate != nil {
		e.HourlyRate = *r.rate
	}
}

type EmployeeResponse struct {
	ID         string  `json:"id"`
	FullName   string  `json:"full_name"`
	NationalID string  `json:"national_id,omitempty"`
	Role       Role    `json:"role"`
	Blocked    bool    `json:"blocked"`
	HourlyRate *string `json:"hourly_rate,omitempty"`
}

// ToResponse hides the hourly rate unless showCost is set.
func ToResponse(e Employee, showCost bool) EmployeeResponse {
	resp := EmployeeResponse{
		ID:         e.ID,
		FullName:   e.FullName,
		NationalID: e.NationalID,
		Role:       e.Role,
		Blocked:    e.Blocked,
	}
	if showCost {
		rate := e.HourlyRate.StringFixed(2)
		resp.HourlyRate = &rate
	}
	return resp
}
