package api

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/dmitrijs2005/pixelstudio/internal/server/metrics"
	"github.com/dmitrijs2005/pixelstudio/internal/server/middleware"
	"github.com/dmitrijs2005/pixelstudio/internal/server/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions wires the router's collaborators. Metrics may be nil.
type RouterOptions struct {
	Users         AuthService
	Images        ImageService
	Verifier      middleware.TokenVerifier
	Cookies       *session.Policy
	Metrics       *metrics.Metrics
	Logger        logging.Logger
	AllowedOrigin string
}

// CORSOptions allows credentialed requests from the single configured
// frontend origin.
func CORSOptions(origin string) cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func NewRouter(opts RouterOptions) chi.Router {
	h := &Handler{
		users:   opts.Users,
		images:  opts.Images,
		cookies: opts.Cookies,
		logger:  opts.Logger.With("module", "api"),
		now:     time.Now,
	}

	var (
		rejections middleware.RejectionObserver
		httpObs    middleware.HTTPObserver
	)
	if opts.Metrics != nil {
		h.observer = opts.Metrics
		rejections = opts.Metrics
		httpObs = opts.Metrics
	}

	authn := middleware.NewAuthenticator(opts.Verifier, opts.Cookies, opts.Users, rejections, opts.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(opts.Logger, httpObs))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(CORSOptions(opts.AllowedOrigin)))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.signup)
			r.Post("/login", h.login)
			r.Post("/signin", h.login)
			r.Post("/refresh", h.refresh)

			r.Group(func(r chi.Router) {
				r.Use(authn.Require)
				r.Post("/signout", h.signout)
				r.Post("/logout", h.signout)
				r.Get("/user", h.me)
				r.Get("/me", h.me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Require)
			r.Post("/uploads/presign", h.presignUpload)
			r.Post("/images", h.createImage)
			r.Get("/images/my-images", h.myImages)
			r.Delete("/images/{imageID}", h.deleteImage)
		})
	})

	return r
}
