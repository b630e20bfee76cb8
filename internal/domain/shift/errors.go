package shift

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
)

// Shift domain errors
var (
	ErrShiftOccupied        = errors.New("shift slot is already taken by another employee")
	ErrDuplicateShift       = errors.New("employee already holds this shift")
	ErrMonthlyQuotaExceeded = errors.New("monthly shift quota reached")
	ErrRoleRestrictedSlot   = errors.New("shift slot is reserved for managers")
	ErrUnknownSlot          = errors.New("slot time is not in the catalog")
	ErrEmptyPattern         = errors.New("rotation pattern needs at least one slot")
	ErrPastDateMutation     = common.ErrPastDateMutation
	ErrNotAssignmentOwner   = fmt.Errorf("only the assignee or an admin may release a shift: %w", common.ErrPermissionDenied)
	ErrAssignmentNotFound   = fmt.Errorf("shift assignment: %w", common.ErrRecordNotFound)
	ErrPatternNotFound      = fmt.Errorf("rotation pattern: %w", common.ErrRecordNotFound)
)
