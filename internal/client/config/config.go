package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Config holds runtime settings for the authkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the authentication REST API.
//   - SessionDB: path of the local SQLite file that keeps the session token.
//   - TokenKey: fixed storage key the session token is saved under.
//   - CaptchaDir: directory CAPTCHA images are written to for viewing.
//   - RequestTimeout: per-request HTTP timeout; zero means no timeout.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerURL      string        `env:"SERVER_URL"`
	SessionDB      string        `env:"SESSION_DB"`
	TokenKey       string        `env:"TOKEN_KEY"`
	CaptchaDir     string        `env:"CAPTCHA_DIR"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel       string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = common.DefaultServerURL
	c.SessionDB = "session.db"
	c.TokenKey = common.DefaultTokenKey
	c.CaptchaDir = os.TempDir()
	c.RequestTimeout = 0
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (including an optional .env file), a JSON file and finally
// command-line flags. Later sources take precedence over earlier ones.
//
// args are the program arguments without the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
