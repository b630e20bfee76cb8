package http

import (
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ShiftHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Catalog(w http.ResponseWriter, r *http.Request)
	Select(w http.ResponseWriter, r *http.Request)
	Release(w http.ResponseWriter, r *http.Request)
	AdminAssign(w http.ResponseWriter, r *http.Request)
	AutoAssign(w http.ResponseWriter, r *http.Request)
	ListPatterns(w http.ResponseWriter, r *http.Request)
	SetPattern(w http.ResponseWriter, r *http.Request)
	RunRotation(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	scheduler shift.SchedulerService
}

func NewShiftHandler(scheduler shift.SchedulerService) ShiftHandler {
	return &shiftHandlerImpl{
		scheduler: scheduler,
	}
}

type catalogResponse struct {
	Times            []string `json:"times"`
	ManagerOnlyTimes []string `json:"manager_only_times"`
	ManagerOnlyDays  []string `json:"manager_only_days"`
	MonthlyQuota     int      `json:"monthly_quota"`
}

// List implements ShiftHandler.
func (h *shiftHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Slot occupancy is public; only the employee filter is optional.
	filter := shift.Filter{From: from, To: to}
	if requested := r.URL.Query().Get("employee_id"); requested != "" {
		filter.EmployeeID = employee.NormalizeID(requested)
	}

	assignments, err := h.scheduler.GetAssignments(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, assignments)
}

// Catalog implements ShiftHandler.
func (h *shiftHandlerImpl) Catalog(w http.ResponseWriter, r *http.Request) {
	rules := h.scheduler.Rules()
	days := make([]string, len(rules.ManagerOnlyDays))
	for i, d := range rules.ManagerOnlyDays {
		days[i] = d.String()
	}
	response.Success(w, catalogResponse{
		Times:            h.scheduler.Catalog().Times(),
		ManagerOnlyTimes: rules.ManagerOnlyTimes,
		ManagerOnlyDays:  days,
		MonthlyQuota:     rules.MonthlyQuota,
	})
}

func (h *shiftHandlerImpl) selectRequest(w http.ResponseWriter, r *http.Request) (shift.SelectRequest, string, bool) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return shift.SelectRequest{}, "", false
	}
	var req shift.SelectRequest
	if !decodeJSON(w, r, &req) {
		return req, "", false
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return req, "", false
	}
	employeeID, err := targetEmployee(actor, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return req, "", false
	}
	return req, employeeID, true
}

// Select implements ShiftHandler.
func (h *shiftHandlerImpl) Select(w http.ResponseWriter, r *http.Request) {
	req, employeeID, ok := h.selectRequest(w, r)
	if !ok {
		return
	}
	actor, _ := actorFrom(w, r)
	assignment, err := h.scheduler.SelectShift(r.Context(), actor, employeeID, req.SlotTime, req.ParsedDate())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Shift selected", assignment)
}

// Release implements ShiftHandler.
func (h *shiftHandlerImpl) Release(w http.ResponseWriter, r *http.Request) {
	req, employeeID, ok := h.selectRequest(w, r)
	if !ok {
		return
	}
	actor, _ := actorFrom(w, r)
	if err := h.scheduler.ReleaseShift(r.Context(), actor, employeeID, req.SlotTime, req.ParsedDate()); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Shift released", nil)
}

// AdminAssign implements ShiftHandler.
func (h *shiftHandlerImpl) AdminAssign(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	date, err := pathDate(chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	var req shift.AdminAssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	assignments, err := h.scheduler.AdminAssignShift(r.Context(), actor, employee.NormalizeID(chi.URLParam(r, "employeeID")), date, req.SlotTime, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if req.SlotTime == nil {
		response.SuccessWithMessage(w, "Shift removed", assignments)
		return
	}
	response.SuccessWithMessage(w, "Shift assigned", assignments)
}

// AutoAssign implements ShiftHandler.
func (h *shiftHandlerImpl) AutoAssign(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req shift.AutoAssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.EmployeeID = employee.NormalizeID(req.EmployeeID)
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.scheduler.AutoAssignWeek(r.Context(), actor, req.EmployeeID, req.Pattern, req.ParsedWeek())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// ListPatterns implements ShiftHandler.
func (h *shiftHandlerImpl) ListPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.scheduler.RotationPatterns(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, patterns)
}

// SetPattern implements ShiftHandler.
func (h *shiftHandlerImpl) SetPattern(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req shift.PatternRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	pattern, err := h.scheduler.SetRotationPattern(r.Context(), actor, employee.NormalizeID(chi.URLParam(r, "employeeID")), req.Slots)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, pattern)
}

type runRotationRequest struct {
	WeekStart string `json:"week_start"`
}

// RunRotation implements ShiftHandler.
func (h *shiftHandlerImpl) RunRotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req runRotationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	week, err := calendar.Parse(req.WeekStart)
	if err != nil {
		response.HandleError(w, validator.ValidationErrors{{Field: "week_start", Message: "week_start must be in YYYY-MM-DD format"}})
		return
	}

	results, err := h.scheduler.RunWeeklyRotation(r.Context(), actor, week)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, results)
}
