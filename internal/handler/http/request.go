package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/common"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("Failed to decode request body", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (audit.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid or missing token")
	}
	return actor, ok
}

// targetEmployee resolves which employee a request acts on: the requested one, or the
// caller when none is given. Non-admins may only name themselves.
func targetEmployee(actor audit.Actor, requested string) (string, error) {
	id := employee.NormalizeID(requested)
	if id == "" {
		id = actor.ID
	}
	if !actor.CanActFor(id) {
		return "", common.ErrPermissionDenied
	}
	return id, nil
}

// dateRange parses the optional from/to query parameters.
func dateRange(r *http.Request) (calendar.Date, calendar.Date, error) {
	var errs validator.ValidationErrors
	var from, to calendar.Date
	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = calendar.Parse(raw); err != nil {
			errs = append(errs, validator.ValidationError{Field: "from", Message: common.ErrInvalidDateFormat.Error()})
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = calendar.Parse(raw); err != nil {
			errs = append(errs, validator.ValidationError{Field: "to", Message: common.ErrInvalidDateFormat.Error()})
		}
	}
	if len(errs) > 0 {
		return from, to, errs
	}
	return from, to, nil
}

func pathDate(raw string) (calendar.Date, error) {
	d, err := calendar.Parse(raw)
	if err != nil {
		return calendar.Date{}, validator.ValidationErrors{{Field: "date", Message: common.ErrInvalidDateFormat.Error()}}
	}
	return d, nil
}
