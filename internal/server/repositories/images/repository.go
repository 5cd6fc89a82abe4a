// Package images persists records of media-store objects owned by users.
package images

import (
	"context"

	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, image *models.Image) (*models.Image, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Image, error)
	Get(ctx context.Context, id string) (*models.Image, error)
	Delete(ctx context.Context, id string) error
}
