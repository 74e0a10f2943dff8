package context_manager

import (
	"context"

	"github.com/google/uuid"
)

type userKey struct{}

// SetUserContext stores the authenticated user id into context
func SetUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// GetUserFromContext retrieves the authenticated user id from context
func GetUserFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
