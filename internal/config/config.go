// Package config builds the single configuration value shared by every
// pipeline component: defaults, then an optional YAML file, then
// environment variables. The CLI applies flags on top and calls Normalize.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory when
// no explicit path is given.
const DefaultFile = "bugsy.yaml"

// Providers
const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

type providerDefaults struct {
	model   string
	baseURL string
	keyEnv  string
}

var providers = map[string]providerDefaults{
	ProviderDeepSeek:  {model: "deepseek-chat", baseURL: "https://api.deepseek.com", keyEnv: "DEEPSEEK_API_KEY"},
	ProviderOpenAI:    {model: "gpt-4o-mini", baseURL: "https://api.openai.com/v1", keyEnv: "OPENAI_API_KEY"},
	ProviderAnthropic: {model: "claude-sonnet-4-20250514", baseURL: "https://api.anthropic.com/v1", keyEnv: "ANTHROPIC_API_KEY"},
	ProviderGoogle:    {model: "gemini-2.5-flash", keyEnv: "GOOGLE_API_KEY"},
}

// Providers returns the supported provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeyEnv returns the environment variable holding provider's API key.
func KeyEnv(provider string) string {
	return providers[provider].keyEnv
}

// Config is the complete runtime configuration.
type Config struct {
	DataDir string  `yaml:"data_dir"`
	LLM     LLM     `yaml:"llm"`
	Logging Logging `yaml:"logging"`
}

// LLM configures the model gateway.
type LLM struct {
	Provider          string  `yaml:"provider"`
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	Timeout           string  `yaml:"timeout"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	// Offline skips the model entirely; every LLM stage uses its fallback.
	Offline bool `yaml:"offline"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: "data",
		LLM: LLM{
			Provider:    ProviderDeepSeek,
			Timeout:     "120s",
			Temperature: 0.2,
			MaxTokens:   4096,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path means DefaultFile if it exists; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("BUGSY_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("BUGSY_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("BUGSY_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("BUGSY_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("BUGSY_LLM_TIMEOUT"); v != "" {
		c.LLM.Timeout = v
	}
	if v := os.Getenv("BUGSY_LLM_RPM"); v != "" {
		rpm, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BUGSY_LLM_RPM %q: %w", v, err)
		}
		c.LLM.RequestsPerMinute = rpm
	}
	if v := os.Getenv("BUGSY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Normalize fills provider defaults (model, base URL, API key from the
// provider's environment variable) and validates the result.
func (c *Config) Normalize() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	defaults, ok := providers[c.LLM.Provider]
	if !ok {
		return fmt.Errorf("unknown LLM provider %q (valid: %s)", c.LLM.Provider, strings.Join(Providers(), ", "))
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaults.model
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaults.baseURL
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(defaults.keyEnv)
	}
	return c.Validate()
}

// Validate checks value ranges. It does not require an API key: a missing
// key is reported by the gateway so stages can fall back.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if _, err := c.LLM.TimeoutDuration(); err != nil {
		return err
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be >= 0, got %d", c.LLM.RequestsPerMinute)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", c.LLM.MaxTokens)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	return nil
}

// TimeoutDuration parses the configured gateway timeout.
func (l LLM) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid llm timeout %q: %w", l.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("llm timeout must be positive, got %s", d)
	}
	return d, nil
}
