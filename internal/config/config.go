// Package config loads the CLI configuration from a JSON file and
// environment variables.
//
// Values are resolved once at process start and read-only afterwards.
// Environment variables take precedence over the config file, which takes
// precedence over built-in defaults.
package config

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/picatz/codegen"
)

// DefaultPath is the default location of the JSON config file.
//
// On Unix-like systems it is ~/.codegen/config.json, and on Windows
// %USERPROFILE%/.codegen/config.json. The CODEGEN_CONFIG environment
// variable overrides it.
var DefaultPath = cmp.Or(os.Getenv("HOME"), os.Getenv("USERPROFILE")) + "/.codegen/config.json"

// Environment variable names recognized by Load. The request-shaping names
// match the original dotenv-based tooling this CLI replaced.
const (
	EnvAPIKey       = "OPENAI_API_KEY"
	EnvModel        = "MODEL_NAME"
	EnvMaxTokens    = "MAX_TOKENS"
	EnvTemperature  = "TEMPERATURE"
	EnvBaseURL      = "OPENAI_BASE_URL"
	EnvOrganization = "OPENAI_ORG"
	EnvConfigPath   = "CODEGEN_CONFIG"
)

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = errors.New("OpenAI API key not found: set OPENAI_API_KEY in the environment or api_key in the config file (create a key at https://platform.openai.com/api-keys)")

// Config holds the user-supplied values controlling a request.
type Config struct {
	// APIKey authenticates requests to the OpenAI API. Required.
	APIKey string `json:"api_key"`

	// Model is the model identifier used for requests.
	Model string `json:"model"`

	// MaxTokens is the upper bound on generated completion tokens.
	MaxTokens int64 `json:"max_tokens"`

	// Temperature is the sampling temperature, between 0 and 2.
	Temperature float64 `json:"temperature"`

	// BaseURL overrides the API base URL. Empty means the SDK default.
	BaseURL string `json:"base_url,omitempty"`

	// Organization is sent as the OpenAI-Organization header when set.
	Organization string `json:"organization,omitempty"`
}

// Load resolves the configuration from the config file and environment.
//
// A .env file in the working directory is loaded first, if present. Loading
// is idempotent: calling Load twice under the same environment yields the
// same values. The returned config is not validated; call Validate before
// issuing requests.
func Load() (*Config, error) {
	// Missing .env files are fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Model:       codegen.DefaultModel,
		MaxTokens:   codegen.DefaultMaxTokens,
		Temperature: codegen.DefaultTemperature,
	}

	path := cmp.Or(os.Getenv(EnvConfigPath), DefaultPath)

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fileConfig mirrors Config with pointer fields, so an explicit zero value
// in the file (a valid temperature, for one) is distinguishable from an
// absent key.
type fileConfig struct {
	APIKey       *string  `json:"api_key"`
	Model        *string  `json:"model"`
	MaxTokens    *int64   `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
	BaseURL      *string  `json:"base_url"`
	Organization *string  `json:"organization"`
}

// loadFile merges values from the JSON config file at path, if it exists.
// Only keys present in the file override the current values.
func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var fileCfg fileConfig
	if err := json.Unmarshal(b, &fileCfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	if fileCfg.APIKey != nil {
		c.APIKey = *fileCfg.APIKey
	}
	if fileCfg.Model != nil {
		c.Model = *fileCfg.Model
	}
	if fileCfg.MaxTokens != nil {
		c.MaxTokens = *fileCfg.MaxTokens
	}
	if fileCfg.Temperature != nil {
		c.Temperature = *fileCfg.Temperature
	}
	if fileCfg.BaseURL != nil {
		c.BaseURL = *fileCfg.BaseURL
	}
	if fileCfg.Organization != nil {
		c.Organization = *fileCfg.Organization
	}

	return nil
}

// loadEnv merges values from environment variables, which take precedence
// over the config file.
func (c *Config) loadEnv() error {
	c.APIKey = cmp.Or(os.Getenv(EnvAPIKey), c.APIKey)
	c.Model = cmp.Or(os.Getenv(EnvModel), c.Model)
	c.BaseURL = cmp.Or(os.Getenv(EnvBaseURL), c.BaseURL)
	c.Organization = cmp.Or(os.Getenv(EnvOrganization), c.Organization)

	if v := os.Getenv(EnvMaxTokens); v != "" {
		maxTokens, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvMaxTokens, v, err)
		}
		c.MaxTokens = maxTokens
	}

	if v := os.Getenv(EnvTemperature); v != "" {
		temperature, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvTemperature, v, err)
		}
		c.Temperature = temperature
	}

	return nil
}

// Validate checks that the configuration can be used to issue requests.
// It must pass before any network call is attempted.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be greater than 0, got %d", c.MaxTokens)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}

	return nil
}
