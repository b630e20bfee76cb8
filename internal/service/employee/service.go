package employee

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
)

type EmployeeServiceImpl struct {
	store state.Store
	clock clock.Clock
}

func NewEmployeeService(store state.Store, clk clock.Clock) employee.EmployeeService {
	return &EmployeeServiceImpl{
		store: store,
		clock: clk,
	}
}

// Register implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Register(ctx context.Context, actor audit.Actor, req employee.RegisterRequest) (employee.Employee, error) {
	if !actor.Admin {
		return employee.Employee{}, common.ErrPermissionDenied
	}
	if err := req.Validate(); err != nil {
		return employee.Employee{}, err
	}

	var created employee.Employee
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		if _, exists := cur.Employee(req.ID); exists {
			return nil, fmt.Errorf("%w: %s", employee.ErrEmployeeExists, req.ID)
		}
		now := s.clock.Now()
		created = employee.Employee{
			ID:         req.ID,
			FullName:   req.FullName,
			NationalID: req.NationalID,
			Role:       employee.Role(req.Role),
			HourlyRate: req.Rate(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		cur.PutEmployee(created)
		cur.AppendAudit(actor, audit.ActionEmployeeRegister,
			fmt.Sprintf("registered %s (%s, %s)", created.ID, created.FullName, created.Role), now)
		return cur, nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return created, nil
}

// Update implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Update(ctx context.Context, actor audit.Actor, id string, req employee.UpdateRequest) (employee.Employee, error) {
	if !actor.Admin {
		return employee.Employee{}, common.ErrPermissionDenied
	}
	if err := req.Validate(); err != nil {
		return employee.Employee{}, err
	}
	id = employee.NormalizeID(id)

	var updated employee.Employee
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		prev, err := cur.RequireEmployee(id)
		if err != nil {
			return nil, err
		}
		updated = prev
		req.Apply(&updated)
		changes := diffFields(prev, updated)
		if len(changes) == 0 {
			return nil, nil
		}
		now := s.clock.Now()
		updated.UpdatedAt = now
		cur.PutEmployee(updated)
		cur.AppendAudit(actor, audit.ActionEmployeeUpdate,
			fmt.Sprintf("updated %s: %s", id, strings.Join(changes, ", ")), now)
		return cur, nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return updated, nil
}

// Block implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Block(ctx context.Context, actor audit.Actor, id string) (employee.Employee, error) {
	return s.setBlocked(ctx, actor, id, true)
}

// Unblock implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Unblock(ctx context.Context, actor audit.Actor, id string) (employee.Employee, error) {
	return s.setBlocked(ctx, actor, id, false)
}

func (s *EmployeeServiceImpl) setBlocked(ctx context.Context, actor audit.Actor, id string, blocked bool) (employee.Employee, error) {
	if !actor.Admin {
		return employee.Employee{}, common.ErrPermissionDenied
	}
	id = employee.NormalizeID(id)

	var e employee.Employee
	err := s.store.WithExclusiveAccess(ctx, func(cur *state.State) (*state.State, error) {
		var err error
		e, err = cur.RequireEmployee(id)
		if err != nil {
			return nil, err
		}
		switch {
		case blocked && e.Blocked:
			return nil, fmt.Errorf("%w: %s", employee.ErrAlreadyBlocked, id)
		case !blocked && !e.Blocked:
			return nil, fmt.Errorf("%w: %s", employee.ErrNotBlocked, id)
		}

		now := s.clock.Now()
		e.Blocked = blocked
		e.UpdatedAt = now
		cur.PutEmployee(e)

		action, verb := audit.ActionEmployeeUnblock, "unblocked"
		if blocked {
			action, verb = audit.ActionEmployeeBlock, "blocked"
		}
		cur.AppendAudit(actor, action, fmt.Sprintf("%s %s", verb, id), now)
		return cur, nil
	})
	if err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

// Get implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Get(ctx context.Context, id string) (employee.Employee, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to read employees: %w", err)
	}
	return snap.RequireEmployee(employee.NormalizeID(id))
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, includeBlocked bool) ([]employee.Employee, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}
	all := snap.EmployeeList()
	if includeBlocked {
		return all, nil
	}
	out := make([]employee.Employee, 0, len(all))
	for _, e := range all {
		if !e.Blocked {
			out = append(out, e)
		}
	}
	return out, nil
}

// diffFields describes what changed between two versions, old value first.
func diffFields(prev, next employee.Employee) []string {
	var out []string
	if prev.FullName != next.FullName {
		out = append(out, fmt.Sprintf("full_name %q -> %q", prev.FullName, next.FullName))
	}
	if prev.NationalID != next.NationalID {
		out = append(out, fmt.Sprintf("national_id %q -> %q", prev.NationalID, next.NationalID))
	}
	if prev.Role != next.Role {
		out = append(out, fmt.Sprintf("role %s -> %s", prev.Role, next.Role))
	}
	if !prev.HourlyRate.Equal(next.HourlyRate) {
		out = append(out, fmt.Sprintf("hourly_rate %s -> %s", prev.HourlyRate.String(), next.HourlyRate.String()))
	}
	return out
}
