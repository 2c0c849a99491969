package userctx

import (
	"context"

	"github.com/google/uuid"
)

// Identity is what a verified access token says about the caller.
// It is decoded from the token, not loaded from the store.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type ctxKey string

const identityKey ctxKey = "identity"

// Create a new context with the identity
func New(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Extract the identity from the context
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
