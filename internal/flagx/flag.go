// Package flagx holds small helpers for the layered configuration loaders:
// selective command-line parsing and environment lookups.
package flagx

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// FilterArgs returns only the allowed flags (and their values) from args.
// Both "-c conf.json" and "--config=conf.json" forms are recognized; a value
// is taken from the next argument only when it does not start with "-".
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFileFlag extracts the JSON config path given via -c or -config.
// Other arguments are ignored so each loader can parse its own flag set.
// An empty string means no config file was requested.
func ConfigFileFlag() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// EnvString overwrites *dst with the first non-empty variable among keys.
func EnvString(dst *string, keys ...string) {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			*dst = v
			return
		}
	}
}

// EnvBool overwrites *dst when the variable parses as a boolean.
func EnvBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

// EnvDuration overwrites *dst when the variable parses as a time.Duration.
func EnvDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
