package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/jwt"
)

type actorKey struct{}

// AuthRequired rejects requests without a verified token of one of the allowed types and
// stores the caller on the context. Run it after jwtauth.Verifier.
func AuthRequired(allowed ...string) func(http.Handler) http.Handler {
	if len(allowed) == 0 {
		allowed = []string{jwt.TokenTypeAccess}
	}
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			actor, err := jwt.ActorFromContext(r.Context(), allowed...)
			if err != nil {
				response.Unauthorized(w, "Invalid or missing token")
				return
			}
			actor.Origin = r.RemoteAddr
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		}
		return http.HandlerFunc(hfn)
	}
}

func WithActor(ctx context.Context, actor audit.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller stored by AuthRequired.
func ActorFrom(ctx context.Context) (audit.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(audit.Actor)
	return actor, ok
}
