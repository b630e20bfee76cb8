package employee

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
)

var (
	ErrEmployeeNotFound = fmt.Errorf("employee: %w", common.ErrRecordNotFound)
	ErrEmployeeExists   = errors.New("employee id already registered")
	ErrEmployeeBlocked  = errors.New("employee is blocked")
	ErrAlreadyBlocked   = errors.New("employee is already blocked")
	ErrNotBlocked       = errors.New("employee is not blocked")
	ErrInvalidRole      = errors.New("role must be collaborator or manager")
)
