package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pixelstudio/internal/flagx"
	"github.com/dmitrijs2005/pixelstudio/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept strings like "5s" or integer nanoseconds. Absent keys leave the
// current values alone.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	CookieDB       *string         `json:"cookie_db"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config. Read or
// unmarshal errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.CookieDB != nil {
		cfg.CookieDB = *jc.CookieDB
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
