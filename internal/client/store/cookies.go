package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/dbx"
)

// CookieStore persists cookies per request host. A cookie's Domain
// attribute is kept so a restored domain cookie still matches sibling hosts.
type CookieStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewCookieStore(db *sql.DB) *CookieStore {
	return &CookieStore{db: db, now: time.Now}
}

// Save applies a Set-Cookie batch for host: live cookies are upserted,
// cookies with MaxAge < 0 or an expiry in the past are removed.
func (s *CookieStore) Save(ctx context.Context, host string, cookies []*http.Cookie) error {
	now := s.now()
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, c := range cookies {
			path := c.Path
			if path == "" {
				path = "/"
			}

			expires, live := expiry(c, now)
			if !live {
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?`,
					host, c.Name, path); err != nil {
					return fmt.Errorf("failed to delete cookie %s: %w", c.Name, err)
				}
				continue
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cookies (host, name, path, domain, value, expires_at, secure, http_only, same_site)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(host, name, path) DO UPDATE SET
					domain = excluded.domain,
					value = excluded.value,
					expires_at = excluded.expires_at,
					secure = excluded.secure,
					http_only = excluded.http_only,
					same_site = excluded.same_site
			`, host, c.Name, path, c.Domain, c.Value, expires, c.Secure, c.HttpOnly, int(c.SameSite)); err != nil {
				return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

// Load returns the unexpired cookies stored for host.
func (s *CookieStore) Load(ctx context.Context, host string) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, path, domain, value, expires_at, secure, http_only, same_site
		FROM cookies
		WHERE host = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY name, path
	`, host, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to load cookies: %w", err)
	}
	defer rows.Close()

	var result []*http.Cookie
	for rows.Next() {
		var (
			c        http.Cookie
			expires  sql.NullInt64
			sameSite int
		)
		if err := rows.Scan(&c.Name, &c.Path, &c.Domain, &c.Value, &expires, &c.Secure, &c.HttpOnly, &sameSite); err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		if expires.Valid {
			c.Expires = time.Unix(expires.Int64, 0)
		}
		c.SameSite = http.SameSite(sameSite)
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookie rows: %w", err)
	}
	return result, nil
}

// Clear drops every cookie for host.
func (s *CookieStore) Clear(ctx context.Context, host string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE host = ?`, host); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows for all hosts.
func (s *CookieStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cookies WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cookies: %w", err)
	}
	return res.RowsAffected()
}

// expiry resolves a cookie's absolute expiry the way a browser does:
// MaxAge wins over Expires, and neither means a session cookie.
func expiry(c *http.Cookie, now time.Time) (sql.NullInt64, bool) {
	switch {
	case c.MaxAge < 0:
		return sql.NullInt64{}, false
	case c.MaxAge > 0:
		return sql.NullInt64{Int64: now.Add(time.Duration(c.MaxAge) * time.Second).Unix(), Valid: true}, true
	case !c.Expires.IsZero():
		if !c.Expires.After(now) {
			return sql.NullInt64{}, false
		}
		return sql.NullInt64{Int64: c.Expires.Unix(), Valid: true}, true
	default:
		return sql.NullInt64{}, true
	}
}
