package attendance

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
)

// Attendance domain errors
var (
	ErrDuplicateClockIn   = errors.New("employee already clocked in on this date")
	ErrNoOpenClockIn      = errors.New("employee has no open clock-in")
	ErrInvalidTimestamp   = common.ErrInvalidTimestamp
	ErrClockOutBeforeIn   = fmt.Errorf("clock-out precedes clock-in: %w", common.ErrInvalidTimestamp)
	ErrAttendanceNotFound = fmt.Errorf("attendance: %w", common.ErrRecordNotFound)
)
