// Package api exposes the HTTP surface of the server: authentication
// endpoints, the image endpoints that consume the request identity, health
// and metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/dmitrijs2005/pixelstudio/internal/server/auth"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	"github.com/dmitrijs2005/pixelstudio/internal/server/services"
	"github.com/dmitrijs2005/pixelstudio/internal/server/session"
	"github.com/go-chi/chi/v5"
)

// AuthService is the subset of services.UserService the handlers use.
type AuthService interface {
	Signup(ctx context.Context, in services.RegisterInput) (*models.User, *auth.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.User, *auth.TokenPair, error)
	Signout(ctx context.Context, userID, refreshToken string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type ImageService interface {
	PresignUpload(ctx context.Context, userID, contentType string) (string, string, error)
	Create(ctx context.Context, userID, key string) (*models.Image, error)
	ListMine(ctx context.Context, userID string) ([]*models.Image, error)
	Delete(ctx context.Context, userID, imageID string) error
}

// AuthObserver counts authentication operations.
type AuthObserver interface {
	ObserveAuth(operation string, err error)
}

type Handler struct {
	users    AuthService
	images   ImageService
	cookies  *session.Policy
	observer AuthObserver
	logger   logging.Logger
	now      func() time.Time
}

type userResponse struct {
	User models.PublicUser `json:"user"`
}

type signupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Username       string `json:"username"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) observe(op string, err error) {
	if h.observer != nil {
		h.observer.ObserveAuth(op, err)
	}
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, pair, err := h.users.Signup(r.Context(), services.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Username:       req.Username,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfilePicture: req.ProfilePicture,
	})
	h.observe("signup", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cookies.Attach(w, pair)
	writeJSON(w, http.StatusCreated, userResponse{User: user.Public()})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	h.observe("login", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cookies.Attach(w, pair)
	writeJSON(w, http.StatusOK, userResponse{User: user.Public()})
}

// refresh reads only the refresh cookie. Any authentication failure clears
// both cookies so the client is left fully signed out.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := h.cookies.RefreshToken(r)
	if !ok {
		h.observe("refresh", common.ErrNoRefreshToken)
		h.cookies.Clear(w)
		h.fail(w, r, common.ErrNoRefreshToken)
		return
	}

	user, pair, err := h.users.Refresh(r.Context(), token)
	h.observe("refresh", err)
	if err != nil {
		if errors.Is(err, common.ErrRefreshFailed) || errors.Is(err, common.ErrNoRefreshToken) {
			h.cookies.Clear(w)
		}
		h.fail(w, r, err)
		return
	}

	h.cookies.Attach(w, pair)
	writeJSON(w, http.StatusOK, userResponse{User: user.Public()})
}

func (h *Handler) signout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	token, _ := h.cookies.RefreshToken(r)

	err := h.users.Signout(r.Context(), identity.ID, token)
	h.observe("signout", err)
	if err != nil {
		// The session still ends on this client.
		h.logger.Warn(r.Context(), "refresh token not revoked", "user_id", identity.ID, "error", err)
	}

	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.fail(w, r, common.ErrMissingToken)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: identity})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

type presignRequest struct {
	ContentType string `json:"contentType"`
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type createImageRequest struct {
	Key string `json:"key"`
}

func (h *Handler) presignUpload(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var req presignRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	key, url, err := h.images.PresignUpload(r.Context(), identity.ID, req.ContentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presignResponse{Key: key, URL: url})
}

func (h *Handler) createImage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var req createImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	img, err := h.images.Create(r.Context(), identity.ID, req.Key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (h *Handler) myImages(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	imgs, err := h.images.ListMine(r.Context(), identity.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imgs)
}

func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.images.Delete(r.Context(), identity.ID, chi.URLParam(r, "imageID")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
}
