package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/server/auth"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	"github.com/dmitrijs2005/pixelstudio/internal/server/services"
)

// fakeAuth is an in-memory AuthService that mints real tokens and keeps
// consume-once refresh records, like the database-backed service.
type fakeAuth struct {
	mu        sync.Mutex
	issuer    *auth.Issuer
	users     map[string]*models.User
	passwords map[string]string
	live      map[string]string
	refreshes int
}

func newFakeAuth(issuer *auth.Issuer) *fakeAuth {
	return &fakeAuth{
		issuer:    issuer,
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		live:      map[string]string{},
	}
}

func (f *fakeAuth) open(userID string) (*auth.TokenPair, error) {
	pair, err := f.issuer.Issue(userID)
	if err != nil {
		return nil, err
	}
	f.live[pair.RefreshID] = userID
	return pair, nil
}

func (f *fakeAuth) byEmail(email string) *models.User {
	for _, u := range f.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeAuth) Signup(_ context.Context, in services.RegisterInput) (*models.User, *auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email := common.NormalizeEmail(in.Email)
	if !common.ValidEmail(email) || len(in.Password) < common.MinPasswordLength {
		return nil, nil, fmt.Errorf("%w: bad input", common.ErrValidation)
	}
	if f.byEmail(email) != nil {
		return nil, nil, common.ErrDuplicateEmail
	}

	u := &models.User{
		ID:           fmt.Sprintf("user-%d", len(f.users)+1),
		Email:        email,
		FirstName:    in.FirstName,
		PasswordHash: "$2a$10$stored-credential",
		CreatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	f.passwords[email] = in.Password

	pair, err := f.open(u.ID)
	return u, pair, err
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email = common.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}
	u := f.byEmail(email)
	if u == nil || f.passwords[email] != password {
		return nil, nil, common.ErrInvalidCredentials
	}
	pair, err := f.open(u.ID)
	return u, pair, err
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (*models.User, *auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++

	claims, err := f.issuer.Verify(token, auth.KindRefresh)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrRefreshFailed, err)
	}
	if _, ok := f.live[claims.ID]; !ok {
		return nil, nil, common.ErrRefreshFailed
	}
	delete(f.live, claims.ID)

	u, ok := f.users[claims.Subject]
	if !ok {
		return nil, nil, common.ErrRefreshFailed
	}
	pair, err := f.open(u.ID)
	return u, pair, err
}

func (f *fakeAuth) Signout(_ context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	claims, err := f.issuer.Verify(token, auth.KindRefresh)
	if err == nil && claims.Subject == userID {
		delete(f.live, claims.ID)
	}
	return nil
}

func (f *fakeAuth) GetUser(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeImages struct {
	items map[string]*models.Image
}

func (f *fakeImages) PresignUpload(_ context.Context, userID, _ string) (string, string, error) {
	key := "users/" + userID + "/k1"
	return key, "http://s3.local/" + key, nil
}

func (f *fakeImages) Create(_ context.Context, userID, key string) (*models.Image, error) {
	if !strings.HasPrefix(key, "users/"+userID+"/") {
		return nil, common.ErrorForbidden
	}
	img := &models.Image{ID: fmt.Sprintf("img-%d", len(f.items)+1), UserID: userID, StorageKey: key, CreatedAt: time.Now()}
	f.items[img.ID] = img
	return img, nil
}

func (f *fakeImages) ListMine(_ context.Context, userID string) ([]*models.Image, error) {
	out := []*models.Image{}
	for _, img := range f.items {
		if img.UserID == userID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImages) Delete(_ context.Context, userID, id string) error {
	img, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	if img.UserID != userID {
		return common.ErrorForbidden
	}
	delete(f.items, id)
	return nil
}
