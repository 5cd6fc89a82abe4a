package common

const (
	// AccessTokenCookieName carries the short-lived access token.
	AccessTokenCookieName = "pixelstudio_access"
	// RefreshTokenCookieName carries the long-lived refresh token.
	RefreshTokenCookieName = "pixelstudio_refresh"

	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// MinPasswordLength is the registration policy for secrets.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest secret bcrypt accepts.
	MaxPasswordBytes = 72
)
