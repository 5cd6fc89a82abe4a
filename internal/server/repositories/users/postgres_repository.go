package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/dbx"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	usernameConstraintName = "users_username_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, email, username, first_name, last_name, profile_picture, password_hash)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, nullString(user.Username), user.FirstName, user.LastName,
		user.ProfilePicture, nullString(user.PasswordHash)).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == usernameConstraintName {
				return nil, common.ErrDuplicateUsername
			}
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, username, first_name, last_name, profile_picture, password_hash, created_at, disabled_at
		 FROM users
		 WHERE lower(email) = $1
		 `
	return r.scanOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, username, first_name, last_name, profile_picture, password_hash, created_at, disabled_at
		 FROM users
		 WHERE id = $1
		 `
	return r.scanOne(ctx, query, id)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user     models.User
		username sql.NullString
		hash     sql.NullString
		disabled sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &username, &user.FirstName, &user.LastName,
		&user.ProfilePicture, &hash, &user.CreatedAt, &disabled)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Username = username.String
	user.PasswordHash = hash.String
	if disabled.Valid {
		user.DisabledAt = &disabled.Time
	}

	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
