package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	Toggle(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	timeClock attendance.TimeClockService
	clock     clock.Clock
}

func NewAttendanceHandler(timeClock attendance.TimeClockService, clk clock.Clock) AttendanceHandler {
	return &attendanceHandlerImpl{
		timeClock: timeClock,
		clock:     clk,
	}
}

// punch decodes and validates a PunchRequest and resolves its employee and timestamp.
// A missing timestamp yields nil.
func (h *attendanceHandlerImpl) punch(w http.ResponseWriter, r *http.Request) (string, *time.Time, bool) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return "", nil, false
	}
	var req attendance.PunchRequest
	if !decodeJSON(w, r, &req) {
		return "", nil, false
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return "", nil, false
	}
	employeeID, err := targetEmployee(actor, req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return "", nil, false
	}
	if req.Timestamp == "" {
		return employeeID, nil, true
	}
	ts, err := attendance.ParseTimestamp(req.Timestamp, h.timeClock.Location())
	if err != nil {
		response.HandleError(w, err)
		return "", nil, false
	}
	return employeeID, &ts, true
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID, ts, ok := h.punch(w, r)
	if !ok {
		return
	}
	actor, _ := actorFrom(w, r)
	record, err := h.timeClock.ClockIn(r.Context(), actor, employeeID, h.at(ts))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Clock in successful", record)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID, ts, ok := h.punch(w, r)
	if !ok {
		return
	}
	actor, _ := actorFrom(w, r)
	record, err := h.timeClock.ClockOut(r.Context(), actor, employeeID, h.at(ts))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Clock out successful", record)
}

// Toggle implements AttendanceHandler.
func (h *attendanceHandlerImpl) Toggle(w http.ResponseWriter, r *http.Request) {
	employeeID, ts, ok := h.punch(w, r)
	if !ok {
		return
	}
	actor, _ := actorFrom(w, r)
	result, err := h.timeClock.SmartToggle(r.Context(), actor, employeeID, ts)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := attendance.Filter{From: from, To: to}
	if requested := r.URL.Query().Get("employee_id"); requested != "" || !actor.Admin {
		if filter.EmployeeID, err = targetEmployee(actor, requested); err != nil {
			response.HandleError(w, err)
			return
		}
	}

	records, err := h.timeClock.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, records)
}

// Correct implements AttendanceHandler.
func (h *attendanceHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	date, err := pathDate(chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	var req attendance.CorrectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.timeClock.AdminCorrect(r.Context(), actor, employee.NormalizeID(chi.URLParam(r, "employeeID")), date, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Attendance corrected", record)
}

type deleteAttendanceRequest struct {
	Reason string `json:"reason"`
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	date, err := pathDate(chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	var req deleteAttendanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.timeClock.AdminDelete(r.Context(), actor, employee.NormalizeID(chi.URLParam(r, "employeeID")), date, req.Reason); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Attendance deleted", nil)
}

func (h *attendanceHandlerImpl) at(ts *time.Time) time.Time {
	if ts == nil {
		return h.clock.Now()
	}
	return *ts
}
