package config

import (
	"os"
	"strconv"

	"github.com/dmitrijs2005/pixelstudio/internal/flagx"
)

// parseEnv overlays values from the process environment. The short names
// (JWT_SECRET, DATABASE_URL, CLIENT_URL, APP_ENV) match the deployment
// conventions of the web frontend; PIXELSTUDIO_* take precedence.
func parseEnv(config *Config) {
	flagx.EnvString(&config.HTTPAddr, "PIXELSTUDIO_HTTP_ADDR")
	flagx.EnvString(&config.DatabaseDSN, "PIXELSTUDIO_DATABASE_DSN", "DATABASE_URL")
	flagx.EnvString(&config.SecretKey, "PIXELSTUDIO_SECRET_KEY", "JWT_SECRET")
	flagx.EnvDuration(&config.AccessTokenValidityDuration, "PIXELSTUDIO_ACCESS_TTL")
	flagx.EnvDuration(&config.RefreshTokenValidityDuration, "PIXELSTUDIO_REFRESH_TTL")
	flagx.EnvString(&config.AllowedOrigin, "PIXELSTUDIO_ALLOWED_ORIGIN", "CLIENT_URL")
	flagx.EnvString(&config.CookieDomain, "PIXELSTUDIO_COOKIE_DOMAIN")
	flagx.EnvString(&config.LogLevel, "PIXELSTUDIO_LOG_LEVEL")
	flagx.EnvString(&config.S3RootUser, "PIXELSTUDIO_S3_USER")
	flagx.EnvString(&config.S3RootPassword, "PIXELSTUDIO_S3_PASSWORD")
	flagx.EnvString(&config.S3Bucket, "PIXELSTUDIO_S3_BUCKET")
	flagx.EnvString(&config.S3Region, "PIXELSTUDIO_S3_REGION")
	flagx.EnvString(&config.S3BaseEndpoint, "PIXELSTUDIO_S3_ENDPOINT")

	if os.Getenv("APP_ENV") == "production" {
		config.Production = true
	}
	flagx.EnvBool(&config.Production, "PIXELSTUDIO_PRODUCTION")

	if v, ok := os.LookupEnv("PIXELSTUDIO_BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
}
