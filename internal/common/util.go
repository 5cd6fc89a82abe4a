package common

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Uniqueness of identities is enforced on this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether s parses as a bare RFC 5322 address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// WipeByteArray overwrites the contents of b with zeros. Used for passwords
// read from the terminal. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
