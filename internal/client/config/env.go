package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the client reads,
// e.g. AUTHKEEPER_SERVER_URL.
const EnvPrefix = "AUTHKEEPER_"

// parseEnv loads dotenvPath into the process environment (variables that are
// already set are kept) and overlays every AUTHKEEPER_* variable onto cfg.
// A missing dotenv file is not an error; unset variables leave fields as they are.
func parseEnv(cfg *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
