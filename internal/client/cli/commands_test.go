package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/pixelstudio/internal/client/client"
	"github.com/dmitrijs2005/pixelstudio/internal/client/config"
	"github.com/dmitrijs2005/pixelstudio/internal/client/models"
	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	user    *models.User
	meErr   error
	meCalls int

	signupIn   client.SignupInput
	loginEmail string
	loginPass  string
	loginErr   error

	refreshErr error
	signoutErr error
	signouts   int

	images     []models.Image
	uploadType string
	uploadData []byte
	deletedID  string
	deleteErr  error
}

func (f *fakeAPI) Signup(_ context.Context, in client.SignupInput) (*models.User, error) {
	f.signupIn = in
	f.user = &models.User{ID: "u1", Email: in.Email, Username: in.Username}
	return f.user, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*models.User, error) {
	f.loginEmail, f.loginPass = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.user = &models.User{ID: "u1", Email: email}
	f.meErr = nil
	return f.user, nil
}

func (f *fakeAPI) Me(context.Context) (*models.User, error) {
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	if f.user == nil {
		return nil, client.ErrSignedOut
	}
	return f.user, nil
}

func (f *fakeAPI) Refresh(context.Context) (*models.User, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.user, nil
}

func (f *fakeAPI) Signout(context.Context) error {
	f.signouts++
	f.user = nil
	return f.signoutErr
}

func (f *fakeAPI) ListImages(context.Context) ([]models.Image, error) {
	return f.images, nil
}

func (f *fakeAPI) Upload(_ context.Context, contentType string, data []byte) (*models.Image, error) {
	f.uploadType, f.uploadData = contentType, data
	return &models.Image{ID: "img1"}, nil
}

func (f *fakeAPI) DeleteImage(_ context.Context, id string) error {
	f.deletedID = id
	return f.deleteErr
}

func stubInputs(t *testing.T, answers []string, password string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	next := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if next >= len(answers) {
			return "", io.EOF
		}
		next++
		return answers[next-1], nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func newTestApp(t *testing.T, api *fakeAPI) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	a := newApp(cfg, api, logging.Nop())
	a.out = &bytes.Buffer{}
	return a
}

func TestLogin_StartsSessionAndInvalidatesGate(t *testing.T) {
	lines := capturePrintln(t)
	api := &fakeAPI{}
	a := newTestApp(t, api)
	ctx := context.Background()

	require.NoError(t, a.Whoami(ctx))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "(anonymous)", a.getStatus())

	stubInputs(t, []string{"ada@example.com"}, "password123")
	require.NoError(t, a.Login(ctx))
	assert.Equal(t, "ada@example.com", api.loginEmail)
	assert.Equal(t, "password123", api.loginPass)
	assert.Equal(t, "(?)", a.getStatus(), "identity is re-resolved after login")

	require.NoError(t, a.Whoami(ctx))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(ada@example.com)", a.getStatus())
	assert.Equal(t, 2, api.meCalls)
	assert.Contains(t, strings.Join(*lines, "\n"), "Signed in as ada@example.com")
}

func TestLogin_FailureShowsServerMessage(t *testing.T) {
	lines := capturePrintln(t)
	api := &fakeAPI{loginErr: &client.APIError{StatusCode: 401, Message: "Invalid email or password"}}
	a := newTestApp(t, api)

	stubInputs(t, []string{"ada@example.com"}, "nope-nope")
	require.Error(t, a.Login(context.Background()))
	assert.Contains(t, *lines, "Login failed: Invalid email or password")
}

func TestSignup_CollectsForm(t *testing.T) {
	capturePrintln(t)
	api := &fakeAPI{}
	a := newTestApp(t, api)

	stubInputs(t, []string{"ada@example.com", "ada", "Ada", ""}, "password123")
	require.NoError(t, a.Signup(context.Background()))

	assert.Equal(t, client.SignupInput{
		Email:     "ada@example.com",
		Password:  "password123",
		Username:  "ada",
		FirstName: "Ada",
	}, api.signupIn)
}

func TestLogout(t *testing.T) {
	lines := capturePrintln(t)
	api := &fakeAPI{user: &models.User{ID: "u1", Email: "ada@example.com"}}
	a := newTestApp(t, api)
	ctx := context.Background()

	_, err := a.resolver.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, a.isLoggedIn())

	require.NoError(t, a.Logout(ctx))
	assert.Equal(t, 1, api.signouts)
	assert.False(t, a.resolver.Snapshot().Resolved)
	assert.Contains(t, *lines, "Signed out")

	// an already-dead session is still a successful logout
	api.signoutErr = client.ErrSignedOut
	require.NoError(t, a.Logout(ctx))

	api.signoutErr = client.ErrUnavailable
	require.Error(t, a.Logout(ctx))
}

func TestRefresh_SessionExpired(t *testing.T) {
	lines := capturePrintln(t)
	api := &fakeAPI{refreshErr: client.ErrSignedOut}
	a := newTestApp(t, api)

	require.Error(t, a.Refresh(context.Background()))
	assert.Contains(t, *lines, "Refresh failed: session expired, please log in again")
}

func TestOpen_UsesGate(t *testing.T) {
	lines := capturePrintln(t)
	api := &fakeAPI{}
	a := newTestApp(t, api)
	ctx := context.Background()

	require.NoError(t, a.Open(ctx, "/editor"))
	require.NoError(t, a.Open(ctx, "/login"))

	api.user = &models.User{ID: "u1", Email: "ada@example.com"}
	a.resolver.Invalidate()
	require.NoError(t, a.Open(ctx, "/login"))
	require.NoError(t, a.Open(ctx, "/gallery"))

	assert.Equal(t, []string{
		"/editor → redirect to /login",
		"/login → render (public-only)",
		"/login → redirect to /editor",
		"/gallery → render (protected)",
	}, *lines)
}

func TestOpen_TransientError(t *testing.T) {
	capturePrintln(t)
	api := &fakeAPI{meErr: client.ErrUnavailable}
	a := newTestApp(t, api)

	require.ErrorIs(t, a.Open(context.Background(), "/editor"), client.ErrUnavailable)
}

func TestImagesUploadDelete(t *testing.T) {
	lines := capturePrintln(t)
	api := &fakeAPI{}
	a := newTestApp(t, api)
	ctx := context.Background()

	require.NoError(t, a.Images(ctx))
	assert.Contains(t, *lines, "No images yet")

	api.images = []models.Image{{ID: "img2", URL: "http://store/img2"}}
	require.NoError(t, a.Images(ctx))
	assert.Contains(t, (*lines)[len(*lines)-1], "img2")

	origRead := readFile
	t.Cleanup(func() { readFile = origRead })
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	readFile = func(string) ([]byte, error) { return png, nil }

	require.NoError(t, a.Upload(ctx, "cat.png"))
	assert.Equal(t, "image/png", api.uploadType)
	assert.Equal(t, png, api.uploadData)

	readFile = func(string) ([]byte, error) { return nil, errors.New("no such file") }
	require.Error(t, a.Upload(ctx, "missing.png"))

	require.NoError(t, a.Delete(ctx, "img2"))
	assert.Equal(t, "img2", api.deletedID)

	api.deleteErr = &client.APIError{StatusCode: 403, Message: "Forbidden"}
	require.Error(t, a.Delete(ctx, "theirs"))
	assert.Contains(t, *lines, "Delete failed: Forbidden")
}
