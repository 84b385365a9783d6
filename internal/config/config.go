// Package config resolves client settings from the environment and owns
// global logger initialization for the CLI.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Per-environment API base URLs. An explicit VOXSTORY_BASE_URL wins over
// the environment selection.
const (
	devBaseURL     = "http://localhost:8080/api"
	stagingBaseURL = "https://staging.api.voxstory.app/api"
	prodBaseURL    = "https://api.voxstory.app/api"
)

// Settings groups all tunables. Values are taken from environment
// variables with the prefix "VOXSTORY_". Example: VOXSTORY_ENV=staging .
type Settings struct {
	Env         string        `envconfig:"ENV"          default:"prod"`
	BaseURL     string        `envconfig:"BASE_URL"`
	DataDir     string        `envconfig:"DATA_DIR"     default:"./data/voxstory"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	LogLevel    string        `envconfig:"LOG_LEVEL"    default:"info"`
}

// Load populates Settings from environment variables (prefix VOXSTORY_).
// On error it returns Default() so callers can degrade instead of bailing.
func Load() (Settings, error) {
	var s Settings
	if err := envconfig.Process("VOXSTORY", &s); err != nil {
		return Default(), err
	}
	if s.BaseURL == "" {
		s.BaseURL = BaseURLFor(s.Env)
	}
	return s, nil
}

// Default returns the settings used when no environment variables are set.
func Default() Settings {
	return Settings{
		Env:         "prod",
		BaseURL:     prodBaseURL,
		DataDir:     "./data/voxstory",
		HTTPTimeout: 30 * time.Second,
		LogLevel:    "info",
	}
}

// BaseURLFor maps an environment name to its API base URL. Unknown names
// fall back to production.
func BaseURLFor(env string) string {
	switch env {
	case "dev", "development", "local":
		return devBaseURL
	case "staging", "stage":
		return stagingBaseURL
	default:
		return prodBaseURL
	}
}
