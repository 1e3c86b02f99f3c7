package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
)

const (
	msgNoToken      = "Access denied. No token provided"
	msgInvalidToken = "Invalid token"
	msgTokenExpired = "Token expired"
	msgUserNotFound = "User not found"
	msgAuthError    = "Authentication error"
)

// Interceptor is one step of the auth gate. It returns the context the next
// step (and finally the handler) runs with, or a terminal error.
type Interceptor func(r *http.Request) (context.Context, error)

// TokenVerifier checks an access token and returns its owner id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// IdentityResolver loads the user a verified token belongs to.
type IdentityResolver interface {
	GetIdentity(ctx context.Context, id int64) (*models.User, error)
}

// AuthGate authenticates requests by running its interceptors in order.
type AuthGate struct {
	steps []Interceptor
	rs    *responder
}

// newAuthGate builds the standard pipeline: extract the bearer token,
// verify it, then resolve the identity with one store lookup.
func newAuthGate(tokens TokenVerifier, users IdentityResolver, rs *responder) *AuthGate {
	return &AuthGate{
		steps: []Interceptor{
			extractBearer,
			verifyToken(tokens),
			resolveIdentity(users),
		},
		rs: rs,
	}
}

// Middleware rejects the request with the first interceptor error.
func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, step := range g.steps {
			ctx, err := step(r)
			if err != nil {
				g.rs.writeError(r.Context(), w, err)
				return
			}
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

type (
	bearerCtxKey struct{}
	userIDCtxKey struct{}
)

func extractBearer(r *http.Request) (context.Context, error) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(h, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
		return nil, common.NewError(common.KindUnauthenticated, msgNoToken)
	}
	return context.WithValue(r.Context(), bearerCtxKey{}, token), nil
}

func verifyToken(tokens TokenVerifier) Interceptor {
	return func(r *http.Request) (context.Context, error) {
		token, _ := r.Context().Value(bearerCtxKey{}).(string)
		id, err := tokens.Verify(token)
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return nil, common.NewError(common.KindUnauthenticated, msgTokenExpired)
		case err != nil:
			return nil, common.NewError(common.KindUnauthenticated, msgInvalidToken)
		}
		return context.WithValue(r.Context(), userIDCtxKey{}, id), nil
	}
}

func resolveIdentity(users IdentityResolver) Interceptor {
	return func(r *http.Request) (context.Context, error) {
		id, _ := r.Context().Value(userIDCtxKey{}).(int64)
		u, err := users.GetIdentity(r.Context(), id)
		if err != nil {
			switch common.KindOf(err) {
			case common.KindNotFound:
				return nil, common.NewError(common.KindUnauthenticated, msgUserNotFound)
			case common.KindUnavailable:
				return nil, err
			default:
				return nil, common.WrapError(common.KindInternal, msgAuthError, err)
			}
		}
		return withIdentity(r.Context(), u), nil
	}
}
