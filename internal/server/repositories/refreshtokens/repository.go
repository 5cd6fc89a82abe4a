// Package refreshtokens declares the repository contract for the server
// record of live refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
)

// Repository tracks which refresh tokens (by jti) are still redeemable.
type Repository interface {
	// Create records a newly minted refresh token.
	Create(ctx context.Context, id string, userID string, expiresAt time.Time) error

	// Consume atomically deletes the record and returns it. Exactly one
	// caller can consume a given id; the others get common.ErrorNotFound.
	Consume(ctx context.Context, id string) (*models.RefreshToken, error)

	// Delete revokes a token. Deleting an absent token is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired purges records past their expiry and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
