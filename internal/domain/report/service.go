package report

import "context"

// ReportService derives period summaries for payroll and export.
type ReportService interface {
	Summarize(ctx context.Context, req SummaryRequest) (Summary, error)
}
