package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/flagx"
)

var knownFlags = []string{"-u", "-d", "-t", "-v"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-u string   catalog base URL
//	-d string   data directory
//	-t int      request timeout in seconds
//	-v string   log level (debug, info, warn, error)
//
// Only the flags listed above are considered; the rest of args is left to
// other parsers.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("shop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.CatalogBaseURL, "u", cfg.CatalogBaseURL, "catalog base URL")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return nil
}
