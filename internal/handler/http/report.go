package http

import (
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
)

type ReportHandler interface {
	Summary(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reports report.ReportService
}

func NewReportHandler(reports report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reports: reports,
	}
}

// Summary implements ReportHandler. Cost figures are only returned to admins.
func (h *reportHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := report.SummaryRequest{
		EmployeeID: q.Get("employee_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}
	if req.EmployeeID != "" || !actor.Admin {
		id, err := targetEmployee(actor, req.EmployeeID)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		req.EmployeeID = id
	}

	summary, err := h.reports.Summarize(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !actor.Admin {
		summary = summary.WithoutCosts()
	}
	response.Success(w, summary)
}
