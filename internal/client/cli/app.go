package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/pixelstudio/internal/client/client"
	"github.com/dmitrijs2005/pixelstudio/internal/client/config"
	"github.com/dmitrijs2005/pixelstudio/internal/client/gate"
	"github.com/dmitrijs2005/pixelstudio/internal/client/models"
	"github.com/dmitrijs2005/pixelstudio/internal/client/store"
	"github.com/dmitrijs2005/pixelstudio/internal/filex"
	"github.com/dmitrijs2005/pixelstudio/internal/logging"
)

// apiClient is the part of *client.Client the commands use.
type apiClient interface {
	Signup(ctx context.Context, in client.SignupInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)
	Refresh(ctx context.Context) (*models.User, error)
	Signout(ctx context.Context) error
	ListImages(ctx context.Context) ([]models.Image, error)
	Upload(ctx context.Context, contentType string, data []byte) (*models.Image, error)
	DeleteImage(ctx context.Context, id string) error
}

type App struct {
	config   *config.Config
	api      apiClient
	resolver *gate.Resolver
	gate     *gate.Gate
	db       *sql.DB
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the local cookie store, restores the saved session and
// builds the API client on top of it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stderr, c.LogLevel)

	path, err := filex.EnsureParentDir(c.CookieDB)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	cookies := store.NewCookieStore(db)
	if n, err := cookies.PurgeExpired(ctx); err != nil {
		logger.Warn(ctx, "purging expired cookies failed", "error", err)
	} else if n > 0 {
		logger.Debug(ctx, "purged expired cookies", "count", n)
	}

	jar, err := store.NewPersistentJar(cookies, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api, err := client.New(c.ServerURL,
		client.WithJar(jar),
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if n, err := jar.Restore(ctx, api.BaseURL()); err != nil {
		logger.Warn(ctx, "restoring session failed", "error", err)
	} else {
		logger.Debug(ctx, "restored cookies", "count", n)
	}

	app := newApp(c, api, logger)
	app.db = db
	return app, nil
}

func newApp(c *config.Config, api apiClient, logger logging.Logger) *App {
	resolver := gate.NewResolver(api)
	return &App{
		config:   c,
		api:      api,
		resolver: resolver,
		gate:     gate.New(resolver, nil),
		logger:   logger,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run starts the REPL and blocks until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	printlnFn("Welcome to pixelstudio CLI (type 'help' for commands)")
	if u, err := a.resolver.Resolve(ctx); err != nil {
		printlnFn("Server unavailable:", err)
	} else if u != nil {
		printlnFn("Signed in as", u.DisplayName())
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.resolver.Snapshot().Authenticated()
}

func (a *App) getStatus() string {
	snap := a.resolver.Snapshot()
	switch {
	case !snap.Resolved:
		return "(?)"
	case snap.User == nil:
		return "(anonymous)"
	default:
		return fmt.Sprintf("(%s)", snap.User.DisplayName())
	}
}
