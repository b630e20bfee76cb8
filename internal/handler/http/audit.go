package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AuditHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Append(w http.ResponseWriter, r *http.Request)
	StreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
	Ledger(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	audit      audit.Service
	store      state.Store
	jwtService jwt.Service
	keepalive  time.Duration
}

func NewAuditHandler(auditService audit.Service, store state.Store, jwtService jwt.Service) AuditHandler {
	return &auditHandlerImpl{
		audit:      auditService,
		store:      store,
		jwtService: jwtService,
		keepalive:  30 * time.Second,
	}
}

// List implements AuditHandler.
func (h *auditHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var errs validator.ValidationErrors
	filter := audit.Filter{
		Actor:  q.Get("actor"),
		Action: audit.Action(q.Get("action")),
	}
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: p.key, Message: p.key + " must be RFC3339"})
			continue
		}
		*p.dst = ts
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a non-negative integer"})
		}
		filter.Limit = limit
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.audit.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Entries, &response.Meta{
		Limit:      filter.Limit,
		TotalItems: int64(result.Total),
	})
}

// Append implements AuditHandler.
func (h *auditHandlerImpl) Append(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req audit.AppendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.audit.Append(r.Context(), actor, req.Action, req.Detail)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Audit entry recorded", entry)
}

type streamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// StreamToken implements AuditHandler. Browsers cannot set headers on EventSource, so the
// stream accepts a short-lived token in the query string instead.
func (h *auditHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	token, expiresIn, err := h.jwtService.GenerateSSEToken(actor.ID, actor.Admin)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, streamTokenResponse{Token: token, ExpiresIn: expiresIn})
}

// Stream implements AuditHandler.
func (h *auditHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	entries, cleanup := h.audit.Subscribe()
	defer cleanup()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Action, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// Ledger implements AuditHandler.
func (h *auditHandlerImpl) Ledger(w http.ResponseWriter, r *http.Request) {
	month, errM := strconv.Atoi(chi.URLParam(r, "month"))
	day, errD := strconv.Atoi(chi.URLParam(r, "day"))
	if errM != nil || errD != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		response.HandleError(w, validator.ValidationErrors{{Field: "month_day", Message: "month must be 1-12 and day 1-31"}})
		return
	}

	entries, err := h.store.Ledger(r.Context(), time.Month(month), day)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, entries)
}
