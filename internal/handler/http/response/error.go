package response

import (
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/backup"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var timeout *state.LockTimeoutError
	if errors.As(err, &timeout) {
		ServiceUnavailable(w, "The store is busy, retry shortly", int(math.Ceil(timeout.Waited.Seconds())))
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrDuplicateClockIn):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrNoOpenClockIn):
		Conflict(w, err.Error())
	case errors.Is(err, common.ErrInvalidTimestamp):
		BadRequest(w, err.Error(), nil)

	// Shift domain errors
	case errors.Is(err, shift.ErrShiftOccupied):
		Conflict(w, err.Error())
	case errors.Is(err, shift.ErrDuplicateShift):
		Conflict(w, err.Error())
	case errors.Is(err, shift.ErrMonthlyQuotaExceeded):
		RuleViolation(w, "MONTHLY_QUOTA_EXCEEDED", err.Error())
	case errors.Is(err, shift.ErrRoleRestrictedSlot):
		Forbidden(w, err.Error())
	case errors.Is(err, shift.ErrUnknownSlot), errors.Is(err, shift.ErrEmptyPattern):
		RuleViolation(w, "INVALID_SLOT", err.Error())

	// History guard
	case errors.Is(err, common.ErrPastDateMutation):
		RuleViolation(w, "PAST_DATE", err.Error())
	case errors.Is(err, state.ErrEmployeeDeletion), errors.Is(err, state.ErrAuditTampering), errors.Is(err, state.ErrOverrideNotAudited):
		RuleViolation(w, "HISTORY_PROTECTED", err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeExists):
		Conflict(w, err.Error())
	case errors.Is(err, employee.ErrEmployeeBlocked):
		Forbidden(w, err.Error())
	case errors.Is(err, employee.ErrAlreadyBlocked), errors.Is(err, employee.ErrNotBlocked):
		Conflict(w, err.Error())

	// Backups
	case errors.Is(err, backup.ErrInvalidName):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, backup.ErrBackupNotFound):
		NotFound(w, err.Error())

	case errors.Is(err, common.ErrPermissionDenied):
		Forbidden(w, err.Error())
	case errors.Is(err, common.ErrRecordNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, common.ErrInvalidDateFormat):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
