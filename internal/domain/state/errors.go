package state

import (
	"errors"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/lock"
)

var (
	ErrLockTimeout        = lock.ErrTimeout
	ErrPastDateMutation   = common.ErrPastDateMutation
	ErrEmployeeDeletion   = errors.New("employees cannot be deleted, block them instead")
	ErrAuditTampering     = errors.New("audit log entries cannot be changed or removed")
	ErrOverrideNotAudited = errors.New("history override requires an audit entry in the same commit")
	ErrCorruptDocument    = errors.New("state document is corrupt")
)

// LockTimeoutError is returned when the store lock is not acquired in time.
type LockTimeoutError = lock.TimeoutError

// IsRetryable reports whether the operation may succeed if simply retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
