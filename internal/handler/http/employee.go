package http

import (
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type EmployeeHandler interface {
	Me(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Block(w http.ResponseWriter, r *http.Request)
	Unblock(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	employees employee.EmployeeService
}

func NewEmployeeHandler(employees employee.EmployeeService) EmployeeHandler {
	return &employeeHandlerImpl{
		employees: employees,
	}
}

// Me implements EmployeeHandler.
func (h *employeeHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	e, err := h.employees.Get(r.Context(), actor.ID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, employee.ToResponse(e, actor.Admin))
}

// List implements EmployeeHandler.
func (h *employeeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.employees.List(r.Context(), r.URL.Query().Get("include_blocked") == "true")
	if err != nil {
		response.HandleError(w, err)
		return
	}
	out := make([]employee.EmployeeResponse, len(list))
	for i, e := range list {
		out[i] = employee.ToResponse(e, true)
	}
	response.Success(w, out)
}

// Get implements EmployeeHandler.
func (h *employeeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.employees.Get(r.Context(), employee.NormalizeID(chi.URLParam(r, "employeeID")))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, employee.ToResponse(e, true))
}

// Register implements EmployeeHandler.
func (h *employeeHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req employee.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.employees.Register(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Employee registered", employee.ToResponse(e, true))
}

// Update implements EmployeeHandler.
func (h *employeeHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req employee.UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.employees.Update(r.Context(), actor, employee.NormalizeID(chi.URLParam(r, "employeeID")), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Employee updated", employee.ToResponse(e, true))
}

// Block implements EmployeeHandler.
func (h *employeeHandlerImpl) Block(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// Unblock implements EmployeeHandler.
func (h *employeeHandlerImpl) Unblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *employeeHandlerImpl) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id := employee.NormalizeID(chi.URLParam(r, "employeeID"))
	if id == actor.ID && blocked {
		response.HandleError(w, common.ErrPermissionDenied)
		return
	}

	var (
		e   employee.Employee
		err error
	)
	if blocked {
		e, err = h.employees.Block(r.Context(), actor, id)
	} else {
		e, err = h.employees.Unblock(r.Context(), actor, id)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, employee.ToResponse(e, true))
}
