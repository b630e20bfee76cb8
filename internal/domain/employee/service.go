package employee

import (
	"context"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
)

type EmployeeService interface {
	Register(ctx context.Context, actor audit.Actor, req RegisterRequest) (Employee, error)
	Update(ctx context.Context, actor audit.Actor, id string, req UpdateRequest) (Employee, error)
	Block(ctx context.Context, actor audit.Actor, id string) (Employee, error)
	Unblock(ctx context.Context, actor audit.Actor, id string) (Employee, error)
	Get(ctx context.Context, id string) (Employee, error)
	List(ctx context.Context, includeBlocked bool) ([]Employee, error)
}
