// Package cryptox wraps the one-way credential hashing used by the
// credential store. Plaintext secrets never leave this boundary.
package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by ComparePassword when the secret does not match.
var ErrMismatch = errors.New("password mismatch")

// DefaultCost mirrors the cost the frontend-era backend used (10 rounds).
const DefaultCost = bcrypt.DefaultCost

// dummyHash is compared against when no stored hash exists, so unknown
// emails cost roughly the same as wrong passwords.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z6ZsjYX7zCQO2x4P9z6cD5y6")

// HashPassword returns a salted bcrypt hash of password. A cost outside
// bcrypt's accepted range falls back to DefaultCost.
func HashPassword(password []byte, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// ComparePassword checks password against a stored bcrypt hash. An empty
// hash (delegated identity) never matches but still spends a comparison.
func ComparePassword(hash string, password []byte) error {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, password)
		return ErrMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("comparing password: %w", err)
	}
	return nil
}

// Equalize burns one bcrypt comparison. Callers use it on the not-found path.
func Equalize(password []byte) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, password)
}
