// Package auth mints and verifies the signed session tokens (access and
// refresh kind) and carries the resolved identity on request contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims are the registered JWT claims plus the token kind. Subject is the
// user id and ID (jti) is unique per token.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"kind"`
}

// TokenPair is the result of a single Issue call.
type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
	// RefreshID is the jti of RefreshToken; the server keeps a record of it.
	RefreshID string
}

// Issuer signs tokens with one HMAC key. It is read-only after
// construction and safe for concurrent use.
type Issuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer returns an Issuer for key. refreshTTL must be strictly longer
// than accessTTL.
func NewIssuer(key []byte, accessTTL, refreshTTL time.Duration, opts ...Option) (*Issuer, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key is empty")
	}
	if accessTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	if refreshTTL <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl %s must exceed access token ttl %s", refreshTTL, accessTTL)
	}

	i := &Issuer{
		key:        append([]byte(nil), key...),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	return i, nil
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// Issue mints an access and a refresh token for userID at the same instant.
func (i *Issuer) Issue(userID string) (*TokenPair, error) {
	if userID == "" {
		return nil, errors.New("empty subject")
	}

	now := i.now()

	access, accessExp, _, err := i.sign(userID, KindAccess, now, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, refreshID, err := i.sign(userID, KindRefresh, now, i.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
		RefreshID:      refreshID,
	}, nil
}

func (i *Issuer) sign(sub string, kind Kind, now time.Time, ttl time.Duration) (string, time.Time, string, error) {
	exp := now.Add(ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        id,
		},
		Kind: kind,
	})

	s, err := token.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return s, exp, id, nil
}

// Verify checks signature, expiry and kind. Errors are one of
// common.ErrTokenMalformed, common.ErrTokenExpired or
// common.ErrTokenSignatureInvalid; a token of the wrong kind is reported as
// an invalid signature.
func (i *Issuer) Verify(tokenString string, want Kind) (*Claims, error) {
	if tokenString == "" {
		return nil, common.ErrTokenMalformed
	}

	claims := &Claims{}
	_, err := i.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, common.ErrTokenSignatureInvalid
		default:
			return nil, common.ErrTokenMalformed
		}
	}

	if claims.Kind != want {
		return nil, common.ErrTokenSignatureInvalid
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrTokenMalformed
	}
	return claims, nil
}
