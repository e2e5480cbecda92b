// Package config loads service configuration by layering defaults, an
// optional YAML file, and SURVEY_-prefixed environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// SubmitLimit / SubmitWindow bound accepted submissions per client
	// within a rolling window.
	SubmitLimit  int           `koanf:"submit_limit"`
	SubmitWindow time.Duration `koanf:"submit_window"`

	// RateFailOpen keeps the deliberate policy of never blocking
	// submissions when the rate-limit store is down.
	RateFailOpen bool `koanf:"rate_fail_open"`

	// HardLimitCount / HardLimitWindow configure the per-IP request
	// throttle in front of the submission endpoint.
	HardLimitCount  int           `koanf:"hard_limit_count"`
	HardLimitWindow time.Duration `koanf:"hard_limit_window"`

	// TrustProxy enables CF-Connecting-IP / X-Forwarded-For derivation.
	TrustProxy bool `koanf:"trust_proxy"`

	MaxBodySize int64 `koanf:"max_body_size"`

	// StaticDir, when set, serves the built frontend from this directory.
	StaticDir string `koanf:"static_dir"`

	JWTSecret string `koanf:"jwt_secret"`

	// AdminPasswordHash is a bcrypt hash; empty disables admin login.
	AdminPasswordHash string `koanf:"admin_password_hash"`
}

func Default() *Config {
	return &Config{
		Addr:            ":8080",
		DBPath:          "survey.db",
		LogLevel:        "info",
		LogFormat:       "console",
		SubmitLimit:     10,
		SubmitWindow:    time.Hour,
		RateFailOpen:    true,
		HardLimitCount:  30,
		HardLimitWindow: time.Minute,
		TrustProxy:      true,
		MaxBodySize:     64 * 1024,
		JWTSecret:       "cu1-survey-dev-secret",
	}
}

// Load builds a Config by layering (low to high): defaults, the YAML file
// named by SURVEY_CONFIG if set, then SURVEY_* environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("SURVEY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// SURVEY_SUBMIT_LIMIT -> submit_limit, and so on.
	envProvider := env.Provider("SURVEY_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SURVEY_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.SubmitLimit <= 0 || cfg.SubmitWindow <= 0 {
		return nil, errors.New("submit_limit and submit_window must be positive")
	}
	return &cfg, nil
}
