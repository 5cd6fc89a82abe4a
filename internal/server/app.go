// Package server wires the pixelstudio API: configuration, database and
// migrations, the token issuer, services and the HTTP server, and runs it
// until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/dmitrijs2005/pixelstudio/internal/server/api"
	"github.com/dmitrijs2005/pixelstudio/internal/server/auth"
	"github.com/dmitrijs2005/pixelstudio/internal/server/config"
	"github.com/dmitrijs2005/pixelstudio/internal/server/metrics"
	"github.com/dmitrijs2005/pixelstudio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pixelstudio/internal/server/services"
	"github.com/dmitrijs2005/pixelstudio/internal/server/session"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	userService  *services.UserService
	imageService *services.ImageService
	issuer       *auth.Issuer
	cookies      *session.Policy
	metrics      *metrics.Metrics
}

// openDB is a seam for tests.
var openDB = repomanager.OpenPostgres

// purgeInterval is how often expired refresh tokens are dropped.
var purgeInterval = time.Hour

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	us := services.NewUserService(db, rm, issuer, c.BcryptCost, logger)
	is := services.NewImageService(db, rm, c, logger)

	return &App{
		config:       c,
		logger:       logger,
		db:           db,
		userService:  us,
		imageService: is,
		issuer:       issuer,
		cookies:      session.NewPolicy(c.Production, c.CookieDomain),
		metrics:      metrics.New(),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) routerOptions() api.RouterOptions {
	return api.RouterOptions{
		Users:         app.userService,
		Images:        app.imageService,
		Verifier:      app.issuer,
		Cookies:       app.cookies,
		Metrics:       app.metrics,
		Logger:        app.logger,
		AllowedOrigin: app.config.AllowedOrigin,
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := api.NewHTTPServer(app.config.HTTPAddr, api.NewRouter(app.routerOptions()), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) purgeExpiredSessions(ctx context.Context) {
	n, err := app.userService.PurgeExpiredSessions(ctx)
	if err != nil {
		app.logger.Warn(ctx, "expired session purge failed", "error", err)
		return
	}
	app.logger.Info(ctx, "expired sessions purged", "count", n)
}

// runSessionPurge purges once, then on every tick until ctx is done.
func (app *App) runSessionPurge(ctx context.Context) {
	app.purgeExpiredSessions(ctx)

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.purgeExpiredSessions(ctx)
		}
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...", "production", app.config.Production)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSessionPurge(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
