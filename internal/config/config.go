package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Link triggers control when the widget starts ingesting a link.
const (
	LinkTriggerEdit   = "edit"   // every edit of the link field starts ingestion
	LinkTriggerSubmit = "submit" // only Enter starts ingestion
)

// DefaultDebounce is how long the query field must stay idle before it
// submits itself.
const DefaultDebounce = 10 * time.Second

// Themes accepted by ui.theme.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Config holds all linkchat configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Chat    ChatConfig    `yaml:"chat"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig locates the RAG service.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"` // per request; ingestion of large pages is slow
}

// ChatConfig tunes the widget state machine.
type ChatConfig struct {
	Debounce              string `yaml:"debounce"`
	LinkTrigger           string `yaml:"link_trigger"`
	RestoreQueryOnFailure bool   `yaml:"restore_query_on_failure"`
}

// UIConfig configures rendering.
type UIConfig struct {
	Theme    string `yaml:"theme"` // auto, light, dark
	Markdown bool   `yaml:"markdown"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	File       string          `yaml:"file"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: "10m",
		},
		Chat: ChatConfig{
			Debounce:    DefaultDebounce.String(),
			LinkTrigger: LinkTriggerEdit,
		},
		UI: UIConfig{
			Theme:    ThemeAuto,
			Markdown: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(".linkchat", "logs", "linkchat.log"),
		},
	}
}

// DefaultConfigPath returns the config file used when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(".linkchat", "config.yaml")
}

// Load loads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}

// loadDotEnv populates unset environment variables from a .env file.
// Variables already present in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LINKCHAT_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("LINKCHAT_TIMEOUT"); v != "" {
		c.Server.Timeout = v
	}
	if v := os.Getenv("LINKCHAT_DEBOUNCE"); v != "" {
		c.Chat.Debounce = v
	}
	if v := os.Getenv("LINKCHAT_LINK_TRIGGER"); v != "" {
		c.Chat.LinkTrigger = v
	}
	if v := os.Getenv("LINKCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("LINKCHAT_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
			if on {
				c.Logging.Level = "debug"
			}
		}
	}
}

// GetTimeout returns the request timeout as a duration. Zero disables it.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetDebounce returns the query debounce period as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Chat.Debounce)
	if err != nil || d <= 0 {
		return DefaultDebounce
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server base_url %q: must be an http(s) URL", c.Server.BaseURL)
	}

	if c.Server.Timeout != "" {
		d, err := time.ParseDuration(c.Server.Timeout)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid server timeout %q", c.Server.Timeout)
		}
	}

	d, err := time.ParseDuration(c.Chat.Debounce)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid chat debounce %q: must be a positive duration", c.Chat.Debounce)
	}

	switch c.Chat.LinkTrigger {
	case LinkTriggerEdit, LinkTriggerSubmit:
	default:
		return fmt.Errorf("invalid chat link_trigger %q (valid: %s, %s)", c.Chat.LinkTrigger, LinkTriggerEdit, LinkTriggerSubmit)
	}

	switch c.UI.Theme {
	case ThemeAuto, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("invalid ui theme %q (valid: %s, %s, %s)", c.UI.Theme, ThemeAuto, ThemeLight, ThemeDark)
	}

	return nil
}
