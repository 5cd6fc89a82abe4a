package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/dbx"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, image *models.Image) (*models.Image, error) {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}

	query := `
		INSERT INTO user_images (id, user_id, storage_key)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, image.ID, image.UserID, image.StorageKey).Scan(&image.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return image, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Image, error) {
	query := `
		SELECT id, user_id, storage_key, created_at
		FROM user_images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Image
	for rows.Next() {
		img := &models.Image{}
		if err := rows.Scan(&img.ID, &img.UserID, &img.StorageKey, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Image, error) {
	query := `
		SELECT id, user_id, storage_key, created_at
		FROM user_images
		WHERE id = $1
	`
	img := &models.Image{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&img.ID, &img.UserID, &img.StorageKey, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return img, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM user_images
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
