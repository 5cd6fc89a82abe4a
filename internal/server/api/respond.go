package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/server/middleware"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object of at most maxBodyBytes into dst,
// rejecting unknown fields. Decoding problems are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body too large", common.ErrValidation)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", common.ErrValidation)
		default:
			return fmt.Errorf("%w: malformed JSON body", common.ErrValidation)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", common.ErrValidation)
	}
	return nil
}

// statusFor maps service errors to a status and a client-safe message.
// Only validation messages carry detail; everything else is generic.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusBadRequest, "Username already taken"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, common.ErrNoRefreshToken):
		return http.StatusUnauthorized, "No refresh token"
	case errors.Is(err, common.ErrRefreshFailed):
		return http.StatusUnauthorized, "Invalid or expired refresh token"
	case errors.Is(err, common.ErrMissingToken),
		errors.Is(err, common.ErrIdentityGone),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenSignatureInvalid):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	middleware.WriteError(w, status, msg)
}
