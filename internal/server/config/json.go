package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pixelstudio/internal/flagx"
	"github.com/dmitrijs2005/pixelstudio/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations
// accept "1h" style strings or integer nanoseconds. Only fields present in
// the file override the current values.
type JsonConfig struct {
	HTTPAddr                     *string         `json:"http_addr"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	Production                   *bool           `json:"production"`
	AllowedOrigin                *string         `json:"allowed_origin"`
	CookieDomain                 *string         `json:"cookie_domain"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	LogLevel                     *string         `json:"log_level"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config into config. No flag means
// nothing to load. An unreadable file or invalid JSON panics: a broken
// config file is a deployment error, not something to run through.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.Production != nil {
		config.Production = *c.Production
	}
	setString(&config.AllowedOrigin, c.AllowedOrigin)
	setString(&config.CookieDomain, c.CookieDomain)
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
