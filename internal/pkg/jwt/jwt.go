package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"
)

var ErrInvalidClaims = errors.New("invalid token claims")

type Service interface {
	// GenerateAccessToken signs a token naming the employee and whether they administer.
	GenerateAccessToken(employeeID string, admin bool) (token string, expiresAt int64, err error)
	// GenerateSSEToken signs a short-lived token for the audit stream.
	GenerateSSEToken(employeeID string, admin bool) (token string, expiresIn int, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenTTL time.Duration
	tokenAuth      *jwtauth.JWTAuth
	now            func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenTTL time.Duration) Service {
	return &JWTService{
		accessTokenTTL: accessTokenTTL,
		tokenAuth:      jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:            time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(employeeID string, admin bool) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenTTL).Unix()
	_, token, err = j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"is_admin":    admin,
		"type":        TokenTypeAccess,
		"exp":         expiresAt,
	})
	return token, expiresAt, err
}

func (j *JWTService) GenerateSSEToken(employeeID string, admin bool) (token string, expiresIn int, err error) {
	expiresIn = 300
	_, token, err = j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"is_admin":    admin,
		"type":        TokenTypeSSE,
		"exp":         j.now().Add(time.Duration(expiresIn) * time.Second).Unix(),
	})
	if err != nil {
		return "", 0, err
	}
	return token, expiresIn, nil
}

// ActorFromClaims builds the caller identity from verified claims. The token type must be
// one of allowed.
func ActorFromClaims(claims map[string]interface{}, allowed ...string) (audit.Actor, error) {
	typ, _ := claims["type"].(string)
	ok := false
	for _, a := range allowed {
		if typ == a {
			ok = true
			break
		}
	}
	if !ok {
		return audit.Actor{}, ErrInvalidClaims
	}

	id, _ := claims["employee_id"].(string)
	if id == "" {
		return audit.Actor{}, ErrInvalidClaims
	}
	admin, _ := claims["is_admin"].(bool)
	return audit.Actor{ID: id, Admin: admin}, nil
}

// ActorFromContext reads the claims jwtauth.Verifier stored in ctx.
func ActorFromContext(ctx context.Context, allowed ...string) (audit.Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return audit.Actor{}, err
	}
	return ActorFromClaims(claims, allowed...)
}
