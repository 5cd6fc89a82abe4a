package auth

import (
	"context"

	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
)

type identityContextKey struct{}

// WithIdentity attaches the resolved, credential-free identity to ctx.
func WithIdentity(ctx context.Context, user models.PublicUser) context.Context {
	return context.WithValue(ctx, identityContextKey{}, user)
}

// IdentityFromContext returns the identity attached by the authentication
// middleware. ok is false on anonymous requests.
func IdentityFromContext(ctx context.Context) (models.PublicUser, bool) {
	user, ok := ctx.Value(identityContextKey{}).(models.PublicUser)
	return user, ok
}
