package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/pixelstudio/internal/client/client"
	"github.com/dmitrijs2005/pixelstudio/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts for the registration form and creates an account. Only
// email and password are required; empty answers skip the optional fields.
func (a *App) Signup(ctx context.Context) error {
	var in client.SignupInput
	prompts := []struct {
		dst    *string
		prompt string
	}{
		{&in.Email, "Enter email"},
		{&in.Username, "Enter username (optional)"},
		{&in.FirstName, "Enter first name (optional)"},
		{&in.LastName, "Enter last name (optional)"},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.prompt, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	in.Password = string(password)

	u, err := a.api.Signup(ctx, in)
	a.resolver.Invalidate()
	if err != nil {
		a.report("Signup failed", err)
		return err
	}

	printlnFn("Welcome,", u.DisplayName())
	return nil
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.api.Login(ctx, email, string(password))
	a.resolver.Invalidate()
	if err != nil {
		a.report("Login failed", err)
		return err
	}

	printlnFn("Signed in as", u.DisplayName())
	return nil
}

// Logout ends the session on the server and locally.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Signout(ctx)
	a.resolver.Invalidate()
	if err != nil && !errors.Is(err, client.ErrSignedOut) {
		a.report("Sign-out failed", err)
		return err
	}

	printlnFn("Signed out")
	return nil
}

// Whoami shows the identity behind the current session.
func (a *App) Whoami(ctx context.Context) error {
	u, err := a.resolver.Resolve(ctx)
	if err != nil {
		a.report("Lookup failed", err)
		return err
	}
	if u == nil {
		printlnFn("Not signed in")
		return nil
	}

	printlnFn(u.DisplayName(), "<"+u.Email+">", "id:", u.ID)
	return nil
}

// Refresh rotates the session cookies on demand.
func (a *App) Refresh(ctx context.Context) error {
	u, err := a.api.Refresh(ctx)
	a.resolver.Invalidate()
	if err != nil {
		a.report("Refresh failed", err)
		return err
	}

	printlnFn("Session refreshed for", u.DisplayName())
	return nil
}

// report prints a user-facing failure. Server messages are shown as is;
// a lost session gets a hint instead of the raw error.
func (a *App) report(what string, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrSignedOut):
		printlnFn(what+": session expired, please log in again")
	case errors.As(err, &apiErr) && apiErr.Message != "":
		printlnFn(what+":", apiErr.Message)
	case errors.Is(err, client.ErrUnavailable):
		printlnFn(what+": server unavailable")
	default:
		printlnFn(what+":", err)
	}
	a.logger.Debug(context.Background(), "command failed", "command", what, "error", err)
}
