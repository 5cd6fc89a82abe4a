package config

import "github.com/dmitrijs2005/pixelstudio/internal/flagx"

func parseEnv(cfg *Config) {
	flagx.EnvString(&cfg.ServerURL, "PIXELSTUDIO_SERVER_URL")
	flagx.EnvString(&cfg.CookieDB, "PIXELSTUDIO_COOKIE_DB")
	flagx.EnvDuration(&cfg.RequestTimeout, "PIXELSTUDIO_REQUEST_TIMEOUT")
	flagx.EnvString(&cfg.LogLevel, "PIXELSTUDIO_LOG_LEVEL")
}
