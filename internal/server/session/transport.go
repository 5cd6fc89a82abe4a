// Package session moves session tokens between HTTP messages and the
// server: two cookies (access and refresh) sharing one attribute policy,
// with an Authorization header fallback for non-browser clients.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/server/auth"
)

// Policy is the single source of cookie attributes. Attach and Clear both
// build cookies through it, so the two can never disagree on name, path,
// domain or flags.
type Policy struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	Secure      bool
	SameSite    http.SameSite

	now func() time.Time
}

// NewPolicy returns the cookie policy for the deployment. Production turns
// on Secure and relaxes SameSite to None so the configured frontend origin
// can send credentials cross-site; everything else uses SameSite=Strict.
func NewPolicy(production bool, domain string) *Policy {
	p := &Policy{
		AccessName:  common.AccessTokenCookieName,
		RefreshName: common.RefreshTokenCookieName,
		Path:        "/",
		Domain:      domain,
		Secure:      production,
		SameSite:    http.SameSiteStrictMode,
		now:         time.Now,
	}
	if production {
		p.SameSite = http.SameSiteNoneMode
	}
	return p
}

func (p *Policy) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.Path,
		Domain:   p.Domain,
		Secure:   p.Secure,
		HttpOnly: true,
		SameSite: p.SameSite,
	}
}

func (p *Policy) withExpiry(c *http.Cookie, exp time.Time) *http.Cookie {
	maxAge := int(exp.Sub(p.now()) / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	c.MaxAge = maxAge
	c.Expires = exp.UTC()
	return c
}

// Attach sets both cookies, each expiring with its own token.
func (p *Policy) Attach(w http.ResponseWriter, pair *auth.TokenPair) {
	http.SetCookie(w, p.withExpiry(p.cookie(p.AccessName, pair.AccessToken), pair.AccessExpires))
	http.SetCookie(w, p.withExpiry(p.cookie(p.RefreshName, pair.RefreshToken), pair.RefreshExpires))
}

// Clear expires both cookies.
func (p *Policy) Clear(w http.ResponseWriter) {
	for _, name := range []string{p.AccessName, p.RefreshName} {
		c := p.cookie(name, "")
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0).UTC()
		http.SetCookie(w, c)
	}
}

// Extract returns the access token, preferring the cookie and falling back
// to an "Authorization: Bearer" header.
func (p *Policy) Extract(r *http.Request) (string, bool) {
	if c, err := r.Cookie(p.AccessName); err == nil && c.Value != "" {
		return c.Value, true
	}

	h := r.Header.Get(common.AuthorizationHeader)
	if len(h) > len(common.BearerPrefix) && strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		if tok := strings.TrimSpace(h[len(common.BearerPrefix):]); tok != "" {
			return tok, true
		}
	}
	return "", false
}

// RefreshToken reads the refresh cookie. The refresh token is never taken
// from headers or the body.
func (p *Policy) RefreshToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(p.RefreshName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
