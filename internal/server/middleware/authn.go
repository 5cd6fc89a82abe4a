// Package middleware holds the HTTP middleware of the API server:
// request authentication and access logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/dmitrijs2005/pixelstudio/internal/server/auth"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
)

// Reason is why a request was not authorized.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMissingToken
	ReasonInvalidOrExpired
	ReasonIdentityGone
	// ReasonLookupFailed means the identity store could not be queried.
	ReasonLookupFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMissingToken:
		return "missing_token"
	case ReasonInvalidOrExpired:
		return "invalid_or_expired"
	case ReasonIdentityGone:
		return "identity_gone"
	case ReasonLookupFailed:
		return "lookup_failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal state of authenticating one request: either
// Authorized with an Identity, or rejected with a Reason and the
// underlying error.
type Outcome struct {
	Identity models.PublicUser
	Reason   Reason
	Err      error
}

func (o Outcome) Authorized() bool { return o.Reason == ReasonNone }

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	Verify(token string, want auth.Kind) (*auth.Claims, error)
}

// TokenExtractor pulls the access token from a request.
type TokenExtractor interface {
	Extract(r *http.Request) (string, bool)
}

// IdentityLookup re-resolves the token subject on every request.
type IdentityLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RejectionObserver is notified of every rejected request.
type RejectionObserver interface {
	ObserveRejection(reason string)
}

type Authenticator struct {
	verifier  TokenVerifier
	extractor TokenExtractor
	users     IdentityLookup
	observer  RejectionObserver
	logger    logging.Logger
}

func NewAuthenticator(v TokenVerifier, e TokenExtractor, users IdentityLookup, obs RejectionObserver, l logging.Logger) *Authenticator {
	return &Authenticator{
		verifier:  v,
		extractor: e,
		users:     users,
		observer:  obs,
		logger:    l.With("module", "authn"),
	}
}

// Authenticate runs NoToken -> TokenPresent -> Authorized | Rejected.
// It never refreshes tokens.
func (a *Authenticator) Authenticate(r *http.Request) Outcome {
	token, ok := a.extractor.Extract(r)
	if !ok {
		return Outcome{Reason: ReasonMissingToken, Err: common.ErrMissingToken}
	}

	claims, err := a.verifier.Verify(token, auth.KindAccess)
	if err != nil {
		return Outcome{Reason: ReasonInvalidOrExpired, Err: err}
	}

	user, err := a.users.GetUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrIdentityGone) {
			return Outcome{Reason: ReasonIdentityGone, Err: common.ErrIdentityGone}
		}
		return Outcome{Reason: ReasonLookupFailed, Err: err}
	}
	if user.DisabledAt != nil {
		return Outcome{Reason: ReasonIdentityGone, Err: common.ErrIdentityGone}
	}

	return Outcome{Identity: user.Public()}
}

// Require rejects any request that does not authenticate; the handler is
// not run.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := a.Authenticate(r)
		if !out.Authorized() {
			a.reject(w, r, out)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), out.Identity)))
	})
}

// Optional attaches the identity when one resolves and otherwise lets the
// request through as anonymous.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := a.Authenticate(r)
		switch {
		case out.Authorized():
			r = r.WithContext(auth.WithIdentity(r.Context(), out.Identity))
		case out.Reason == ReasonLookupFailed:
			a.reject(w, r, out)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, out Outcome) {
	if a.observer != nil {
		a.observer.ObserveRejection(out.Reason.String())
	}

	if out.Reason == ReasonLookupFailed {
		a.logger.Error(r.Context(), "identity lookup failed", "path", r.URL.Path, "error", out.Err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	a.logger.Debug(r.Context(), "request not authenticated", "path", r.URL.Path, "reason", out.Reason.String())
	WriteError(w, http.StatusUnauthorized, "Not authenticated")
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
