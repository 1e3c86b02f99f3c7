package httpapi

import (
	"context"

	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
)

type ctxKey string

const (
	identityKey  ctxKey = "identity"
	requestIDKey ctxKey = "requestID"
	slotKey      ctxKey = "identitySlot"
)

// identitySlot lets outer middleware see who the request was authenticated
// as after the handler returns.
type identitySlot struct {
	userID int64
}

func withIdentitySlot(ctx context.Context, s *identitySlot) context.Context {
	return context.WithValue(ctx, slotKey, s)
}

func withIdentity(ctx context.Context, u *models.User) context.Context {
	if s, ok := ctx.Value(slotKey).(*identitySlot); ok {
		s.userID = u.ID
	}
	return context.WithValue(ctx, identityKey, u)
}

// IdentityFromContext returns the user attached by the auth gate.
func IdentityFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(identityKey).(*models.User)
	return u, ok && u != nil
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id assigned by the request id
// middleware, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
