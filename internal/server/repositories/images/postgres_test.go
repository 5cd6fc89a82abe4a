package images

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	created := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+user_images\b.*RETURNING\s+created_at\s*$`).
		WithArgs(sqlmock.AnyArg(), "u1", "users/u1/key.png").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	img, err := repo.Create(context.Background(), &models.Image{UserID: "u1", StorageKey: "users/u1/key.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, img.ID)
	assert.True(t, img.CreatedAt.Equal(created))
}

func TestListByUser_NewestFirst(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "storage_key", "created_at"}).
		AddRow("i2", "u1", "k2", now).
		AddRow("i1", "u1", "k1", now.Add(-time.Hour))
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*user_id,\s*storage_key,\s*created_at\s+FROM\s+user_images\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s*$`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "i2", got[0].ID)
	assert.Equal(t, "k1", got[1].StorageKey)
}

func TestListByUser_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT`).WithArgs("u1").WillReturnError(errors.New("boom"))

	_, err := repo.ListByUser(context.Background(), "u1")
	require.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+user_images\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+user_images\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "i1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
