package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			response.Unauthorized(w, "Invalid or missing token")
			return
		}
		if !actor.Admin {
			response.Forbidden(w, "Admin privilege required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
