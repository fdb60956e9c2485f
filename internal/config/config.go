package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SandboxConfig points at a deployed code-eval sandbox.
type SandboxConfig struct {
	URL             string `mapstructure:"url"`
	Token           string `mapstructure:"token"`
	Strace          bool   `mapstructure:"strace"`
	InterpreterMode bool   `mapstructure:"interpreter_mode"`
}

// ProviderConfig describes an OpenAI-compatible LLM endpoint for the solver.
type ProviderConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Models  map[string]string `mapstructure:"models"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type Config struct {
	Sandbox         SandboxConfig             `mapstructure:"sandbox"`
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
	DefaultProvider string                    `mapstructure:"default_provider"`
	Server          ServerConfig              `mapstructure:"server"`
	Storage         StorageConfig             `mapstructure:"storage"`
	PresetsDir      string                    `mapstructure:"presets_dir"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("evalbox")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.evalbox")

	v.SetDefault("sandbox.token", "${EVAL_TOKEN_AUTH}")
	v.SetDefault("default_provider", "ollama")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".evalbox", "evalbox.db"))
	v.SetDefault("presets_dir", filepath.Join(os.Getenv("HOME"), ".evalbox", "presets"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Expand environment variable references in secrets
	cfg.Sandbox.Token = expandEnv(cfg.Sandbox.Token)
	for name, p := range cfg.Providers {
		p.APIKey = expandEnv(p.APIKey)
		cfg.Providers[name] = p
	}

	return &cfg, nil
}

// expandEnv resolves ${VAR} references so tokens never have to live in the
// config file itself.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}

// Validate checks that the sandbox section is usable.
func (c *Config) Validate() error {
	if c.Sandbox.URL == "" {
		return fmt.Errorf("sandbox.url is not configured")
	}
	if c.Sandbox.Token == "" {
		return fmt.Errorf("sandbox.token is not configured (set EVAL_TOKEN_AUTH or sandbox.token)")
	}
	return nil
}

// Provider returns the config for a named provider, falling back to the default.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown provider: %s", name)
	}
	return p, nil
}
