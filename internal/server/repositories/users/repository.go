// Package users declares and implements persistence of identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
)

// Repository stores identities. Emails are stored and looked up in their
// normalized form; implementations return common.ErrDuplicateEmail on a
// uniqueness conflict and common.ErrorNotFound when a lookup misses.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
