package models

import "time"

// User is a registered identity. PasswordHash is empty for identities
// delegated to an external provider.
type User struct {
	ID             string
	Email          string
	Username       string
	FirstName      string
	LastName       string
	ProfilePicture string
	PasswordHash   string
	CreatedAt      time.Time
	DisabledAt     *time.Time
}

// Public returns the credential-free view of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

// PublicUser is the only user shape that leaves the server and the only
// one attached to a request context. It has no credential field.
type PublicUser struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username,omitempty"`
	FirstName      string    `json:"firstName,omitempty"`
	LastName       string    `json:"lastName,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
