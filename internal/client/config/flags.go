package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the authentication API
//	-d string   path of the local session database
//	-p string   directory CAPTCHA images are written to
//	-t int      request timeout in seconds (0 disables the timeout)
//	-l string   log level
//
// Only these flags are looked at (flagx.FilterArgs), so -c/-config and any
// other arguments do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-p", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the authentication API")
	fs.StringVar(&cfg.SessionDB, "d", cfg.SessionDB, "path of the local session database")
	fs.StringVar(&cfg.CaptchaDir, "p", cfg.CaptchaDir, "directory for CAPTCHA images")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// -t overrides earlier sources only when given.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
