package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/dbx"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	imagesrepo "github.com/dmitrijs2005/pixelstudio/internal/server/repositories/images"
	refreshtokensrepo "github.com/dmitrijs2005/pixelstudio/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/pixelstudio/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeUsersRepo is an in-memory users repository keyed by id.
type fakeUsersRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	createErr error
	getErr    error
	created   int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrDuplicateEmail
		}
	}
	f.created++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", f.created)
	cp.CreatedAt = time.Now()
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeRefreshRepo mirrors the consume-once semantics of the SQL repository.
type fakeRefreshRepo struct {
	mu        sync.Mutex
	live      map[string]*models.RefreshToken
	createErr error
	deleted   []string
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{live: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, id, userID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.live[id] = &models.RefreshToken{ID: id, UserID: userID, Expires: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (f *fakeRefreshRepo) Consume(_ context.Context, id string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.live[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.live, id)
	return rec, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, rec := range f.live {
		if !rec.Expires.After(now) {
			delete(f.live, id)
			n++
		}
	}
	return n, nil
}

type fakeImagesRepo struct {
	items     map[string]*models.Image
	listErr   error
	deleteIDs []string
}

func (f *fakeImagesRepo) Create(_ context.Context, img *models.Image) (*models.Image, error) {
	if f.items == nil {
		f.items = map[string]*models.Image{}
	}
	if img.ID == "" {
		img.ID = "11111111-1111-1111-1111-111111111111"
	}
	img.CreatedAt = time.Now()
	f.items[img.ID] = img
	return img, nil
}

func (f *fakeImagesRepo) ListByUser(_ context.Context, userID string) ([]*models.Image, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Image
	for _, img := range f.items {
		if img.UserID == userID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImagesRepo) Get(_ context.Context, id string) (*models.Image, error) {
	img, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return img, nil
}

func (f *fakeImagesRepo) Delete(_ context.Context, id string) error {
	delete(f.items, id)
	f.deleteIDs = append(f.deleteIDs, id)
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	i *fakeImagesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo(), i: &fakeImagesRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Images(dbx.DBTX) imagesrepo.Repository               { return m.i }
