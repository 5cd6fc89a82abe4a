// Package client is the HTTP SDK for the pixelstudio API.
//
// # Overview
//
// A Client keeps the session in a cookie jar, the same way a browser does:
// the server sets the access and refresh cookies on signup, login and
// refresh, and clears them on sign-out. Tokens never pass through Go code.
//
// # Refresh
//
// Calls to protected endpoints go through a single path that, on a 401,
// waits for one shared refresh and retries the original request once.
// Concurrent 401s share the same refresh round-trip. When the refresh
// itself is rejected the client is marked signed out and every later
// protected call fails fast with ErrSignedOut until the next login.
//
// # Errors
//
// Non-2xx responses surface as *APIError, which unwraps to ErrUnauthorized,
// ErrForbidden, ErrNotFound, ErrBadRequest or ErrUnavailable so callers can
// match with errors.Is. Transport failures wrap ErrUnavailable.
package client
