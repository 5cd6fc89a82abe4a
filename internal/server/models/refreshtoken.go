package models

import "time"

// RefreshToken is the server record of a live refresh token, keyed by the
// token's jti claim. Deleting the row revokes the token.
type RefreshToken struct {
	ID        string
	UserID    string
	Expires   time.Time
	CreatedAt time.Time
}
