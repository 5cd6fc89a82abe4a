package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/pixelstudio/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     API root, e.g. "http://localhost:3000"
//	-db string    path of the local cookie database
//	-t duration   request timeout, e.g. "5s"
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-db", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "pixelstudio API url")
	fs.StringVar(&cfg.CookieDB, "db", cfg.CookieDB, "local cookie database")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
