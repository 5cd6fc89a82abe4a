package store

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/dmitrijs2005/pixelstudio/internal/logging"
)

// PersistentJar is an http.CookieJar that mirrors every Set-Cookie into a
// CookieStore. Matching and sending are left to net/http/cookiejar.
type PersistentJar struct {
	jar    *cookiejar.Jar
	store  *CookieStore
	logger logging.Logger
}

func NewPersistentJar(store *CookieStore, logger logging.Logger) (*PersistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &PersistentJar{jar: jar, store: store, logger: logger}, nil
}

func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if err := j.store.Save(context.Background(), u.Hostname(), cookies); err != nil {
		j.logger.Warn(context.Background(), "persisting cookies failed", "host", u.Hostname(), "error", err)
	}
}

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Restore loads the stored cookies for u's host into the in-memory jar.
// It returns how many were restored.
func (j *PersistentJar) Restore(ctx context.Context, u *url.URL) (int, error) {
	cookies, err := j.store.Load(ctx, u.Hostname())
	if err != nil {
		return 0, err
	}
	j.jar.SetCookies(u, cookies)
	return len(cookies), nil
}

// Forget drops u's cookies from disk and memory. Domain cookies are
// expired under their stored domain, since the jar keys them by it.
func (j *PersistentJar) Forget(ctx context.Context, u *url.URL) error {
	stored, err := j.store.Load(ctx, u.Hostname())
	if err != nil {
		return err
	}

	expired := make([]*http.Cookie, 0)
	for _, c := range j.jar.Cookies(u) {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	for _, c := range stored {
		if c.Domain != "" {
			expired = append(expired, &http.Cookie{Name: c.Name, Path: c.Path, Domain: c.Domain, MaxAge: -1})
		}
	}
	j.jar.SetCookies(u, expired)
	return j.store.Clear(ctx, u.Hostname())
}
