package report

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/service/timeclock"
	"github.com/shopspring/decimal"
)

type ReportServiceImpl struct {
	store  state.Store
	clock  clock.Clock
	policy timeclock.Policy
}

func NewReportService(store state.Store, clk clock.Clock, policy timeclock.Policy) report.ReportService {
	return &ReportServiceImpl{
		store:  store,
		clock:  clk,
		policy: policy,
	}
}

// Summarize implements report.ReportService. Costs are always computed; callers strip
// them for non-admin readers.
func (s *ReportServiceImpl) Summarize(ctx context.Context, req report.SummaryRequest) (report.Summary, error) {
	if err := req.Validate(); err != nil {
		return report.Summary{}, err
	}
	from, to := req.Period()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to read state: %w", err)
	}

	if req.EmployeeID != "" {
		if _, err := snap.RequireEmployee(req.EmployeeID); err != nil {
			return report.Summary{}, err
		}
	}

	records := snap.AttendanceList(attendance.Filter{EmployeeID: req.EmployeeID, From: from, To: to})
	assignments := snap.AssignmentList(shift.Filter{EmployeeID: req.EmployeeID, From: from, To: to})

	byEmployee := make(map[string]*report.EmployeeSummary)
	get := func(id string) *report.EmployeeSummary {
		if es, ok := byEmployee[id]; ok {
			return es
		}
		e, _ := snap.Employee(id)
		es := &report.EmployeeSummary{
			EmployeeID: id,
			FullName:   e.FullName,
			Costs:      &report.Costs{HourlyRate: e.HourlyRate},
		}
		byEmployee[id] = es
		return es
	}

	for _, r := range records {
		es := get(r.EmployeeID)
		if r.Open() {
			es.OpenDays++
			continue
		}
		ordinary := decimal.NewFromFloat(r.OrdinaryHours)
		overtime := decimal.NewFromFloat(r.OvertimeHours)
		es.DaysWorked++
		es.OrdinaryHours = es.OrdinaryHours.Add(ordinary)
		es.OvertimeHours = es.OvertimeHours.Add(overtime)
		es.Costs.OrdinaryCost = es.Costs.OrdinaryCost.Add(s.policy.OrdinaryCost(ordinary, es.Costs.HourlyRate))
		es.Costs.OvertimePremium = es.Costs.OvertimePremium.Add(s.policy.Premium(overtime, r.Date.Weekday(), es.Costs.HourlyRate))
	}
	for _, a := range assignments {
		get(a.EmployeeID).Shifts++
	}

	summary := report.Summary{
		From:        from,
		To:          to,
		GeneratedAt: s.clock.Now(),
		Employees:   make([]report.EmployeeSummary, 0, len(byEmployee)),
		Totals:      report.Totals{Costs: &report.Costs{}},
	}
	for _, e := range snap.EmployeeList() {
		es, ok := byEmployee[e.ID]
		if !ok {
			continue
		}
		es.Costs.Total = es.Costs.OrdinaryCost.Add(es.Costs.OvertimePremium)

		summary.Totals.DaysWorked += es.DaysWorked
		summary.Totals.OrdinaryHours = summary.Totals.OrdinaryHours.Add(es.OrdinaryHours)
		summary.Totals.OvertimeHours = summary.Totals.OvertimeHours.Add(es.OvertimeHours)
		summary.Totals.Costs.OrdinaryCost = summary.Totals.Costs.OrdinaryCost.Add(es.Costs.OrdinaryCost)
		summary.Totals.Costs.OvertimePremium = summary.Totals.Costs.OvertimePremium.Add(es.Costs.OvertimePremium)
		summary.Totals.Costs.Total = summary.Totals.Costs.Total.Add(es.Costs.Total)

		summary.Employees = append(summary.Employees, *es)
	}
	return summary, nil
}
