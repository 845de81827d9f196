// Package config handles configuration for lmchat.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/diogo/lmchat/internal/models"
)

// MarkdownConfig configures markdown rendering of assistant replies
type MarkdownConfig struct {
	Style            string `json:"style" env:"LMCHAT_MARKDOWN_STYLE"` // "dark", "light", "notty", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`                      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`                 // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`                        // Enable word wrap in table cells
}

// Config represents the user configuration
type Config struct {
	// BaseURL is the root of the chat server; endpoint paths are appended to it.
	BaseURL string `json:"base_url" env:"LMCHAT_BASE_URL"`
	// Locale selects the message catalog. Empty means "follow LANG".
	Locale string `json:"locale,omitempty" env:"LMCHAT_LOCALE"`
	// RequestTimeout in seconds. 0 waits for the transport to finish or fail.
	RequestTimeout int  `json:"request_timeout" env:"LMCHAT_REQUEST_TIMEOUT"`
	Verbose        bool `json:"verbose" env:"LMCHAT_VERBOSE"`
	// MaxInputHeight caps the input box height, in lines.
	MaxInputHeight  int            `json:"max_input_height" env:"LMCHAT_MAX_INPUT_HEIGHT"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty" env:"LMCHAT_TUI_THEME"`
	LogFile         string         `json:"log_file,omitempty" env:"LMCHAT_LOG_FILE"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		BaseURL:         models.DefaultBaseURL,
		RequestTimeout:  0,
		Verbose:         false,
		MaxInputHeight:  8,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		LogFile:         filepath.Join(homeDir, ".lmchat", "lmchat.log"),
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Validate checks values that would otherwise fail late
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url %q: missing host", c.BaseURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %d", c.RequestTimeout)
	}
	if c.MaxInputHeight < 1 {
		return fmt.Errorf("max_input_height must be at least 1, got %d", c.MaxInputHeight)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".lmchat")
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk and applies environment
// overrides on top of it.
func LoadConfig() (Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}

// loadFile reads config.json without environment overrides
func loadFile() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps the keys accepted by `lmchat config set` to their fields
var setters = map[string]func(*Config, string) error{
	"base_url":          func(c *Config, v string) error { c.BaseURL = strings.TrimRight(v, "/"); return nil },
	"locale":            func(c *Config, v string) error { c.Locale = v; return nil },
	"request_timeout":   intSetter(func(c *Config, n int) { c.RequestTimeout = n }),
	"verbose":           boolSetter(func(c *Config, b bool) { c.Verbose = b }),
	"max_input_height":  intSetter(func(c *Config, n int) { c.MaxInputHeight = n }),
	"copy_to_clipboard": boolSetter(func(c *Config, b bool) { c.CopyToClipboard = b }),
	"tui_theme":         func(c *Config, v string) error { c.TUITheme = v; return nil },
	"log_file":          func(c *Config, v string) error { c.LogFile = v; return nil },
	"markdown.style":    func(c *Config, v string) error { c.Markdown.Style = v; return nil },
	"markdown.emoji":    boolSetter(func(c *Config, b bool) { c.Markdown.EnableEmoji = b }),
}

func intSetter(apply func(*Config, int)) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		apply(c, n)
		return nil
	}
}

func boolSetter(apply func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		apply(c, b)
		return nil
	}
}

// Set updates a single key and validates the result
func (c *Config) Set(key, value string) error {
	setter, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	next := *c
	if err := setter(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetAndSave loads the file config (without environment overrides), updates
// one key and writes it back.
func SetAndSave(key, value string) (Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Set(key, value); err != nil {
		return cfg, err
	}
	return cfg, SaveConfig(cfg)
}
