package audit

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
)

type AppendRequest struct {
	Action Action `json:"action"`
	Detail string `json:"detail"`
}

func (r *AppendRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Action == "" {
		r.Action = ActionNote
	}
	if validator.IsEmpty(r.Detail) {
		errs = append(errs, validator.ValidationError{
			Field:   "detail",
			Message: "detail is required",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Filter narrows GetAuditLog. Zero fields match everything.
type Filter struct {
	Actor  string
	Action Action
	From   time.Time
	To     time.Time
	Limit  int
}

func (f Filter) Match(e Entry) bool {
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// Apply returns the matching entries ordered by timestamp, then sequence. With a limit
// the most recent entries are kept.
func (f Filter) Apply(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

type ListResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}
