package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations go through timex.Duration so the file may hold "30s" or
// integer nanoseconds. Empty fields do not override earlier sources.
type JsonConfig struct {
	ServerURL      string          `json:"server_url"`
	SessionDB      string          `json:"session_db"`
	TokenKey       string          `json:"token_key"`
	CaptchaDir     string          `json:"captcha_dir"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LogLevel       string          `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by -c or
// -config in args. Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIfNotEmpty(&cfg.ServerURL, jc.ServerURL)
	setIfNotEmpty(&cfg.SessionDB, jc.SessionDB)
	setIfNotEmpty(&cfg.TokenKey, jc.TokenKey)
	setIfNotEmpty(&cfg.CaptchaDir, jc.CaptchaDir)
	setIfNotEmpty(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
