// Package config loads stride configuration from a YAML file with .env and
// environment-variable overrides, and watches the settings section for
// changes so the engine can run its reconciliation pass.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/stride/internal/entity"
	"github.com/felixgeelhaar/stride/internal/errors"
)

// Config is the full stride configuration.
type Config struct {
	Provider ProviderConfig      `yaml:"provider"`
	Backend  BackendConfig       `yaml:"backend"`
	Log      LogConfig           `yaml:"log"`
	Settings entity.UserSettings `yaml:"settings"`
}

// ProviderConfig selects and configures the active AI provider.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl,omitempty"`
	Model   string        `yaml:"model,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// BackendConfig points at the goal service.
type BackendConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Provider: ProviderConfig{Name: "gemini"},
		Backend:  BackendConfig{BaseURL: "http://localhost:8080"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Settings: entity.UserSettings{ReminderFrequency: entity.ReminderDaily},
	}
}

// Load reads the config file at path, layering .env and environment
// variables on top. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	// .env is optional; ignore absence.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, errors.Wrap(errors.ErrCodeConfigNotFound, "read config file "+path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, errors.Wrap(errors.ErrCodeConfigUnmarshal, "parse config file "+path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STRIDE_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("STRIDE_PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("STRIDE_PROVIDER_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("STRIDE_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("STRIDE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STRIDE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func validate(cfg Config) error {
	if cfg.Provider.Name == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "provider.name is required")
	}
	if cfg.Backend.BaseURL == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "backend.baseUrl is required")
	}
	if f := cfg.Settings.ReminderFrequency; f != "" && !f.Valid() {
		return errors.New(errors.ErrCodeConfigInvalid,
			"settings.reminderFrequency must be daily, weekly, or task-only")
	}
	return nil
}
