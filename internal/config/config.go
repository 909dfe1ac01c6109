// Package config loads run settings from defaults, an optional YAML file and
// the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-1.5-flash"
)

// ErrMissingCredential is returned when the API key for the selected model
// provider is not set.
var ErrMissingCredential = errors.New("missing model API credential")

type Config struct {
	// Model settings. Model comes from MODEL, else from the model id of the
	// selected provider.
	Provider           string  `yaml:"provider"` // openai | gemini
	APIKey             string  `yaml:"-"`
	Model              string  `yaml:"-"`
	OpenAIModel        string  `yaml:"openai_model"`
	GeminiModel        string  `yaml:"gemini_model"`
	BaseURL            string  `yaml:"base_url"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float32 `yaml:"temperature"`
	TopP               float32 `yaml:"top_p"`
	InsecureSkipVerify bool    `yaml:"insecure_skip_verify"`

	// Feed settings
	FeedPath            string     `yaml:"feed_path"`
	DuplicateWindowDays int        `yaml:"duplicate_window_days"`
	Timezone            string     `yaml:"timezone"` // location used for pubDate stamps
	Channel             FeedConfig `yaml:"channel"`

	// Telegram settings (optional announcement)
	TelegramToken  string `yaml:"-"`
	TelegramChatID string `yaml:"-"`

	// App settings
	Debug  bool `yaml:"debug"`
	DryRun bool `yaml:"-"`
}

// FeedConfig describes the channel written when the feed file is created.
type FeedConfig struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
}

func Default() *Config {
	return &Config{
		Provider:            ProviderOpenAI,
		OpenAIModel:         DefaultOpenAIModel,
		GeminiModel:         DefaultGeminiModel,
		MaxTokens:           400,
		Temperature:         0.9,
		TopP:                1.0,
		FeedPath:            "index.xml",
		DuplicateWindowDays: 30,
		Timezone:            "America/New_York",
		Channel: FeedConfig{
			Title:       "Daily Album Picks",
			Link:        "https://music.apple.com/",
			Description: "Curated daily Apple Music album highlights.",
		},
	}
}

// Load builds the configuration. path may point to a YAML file; a missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv()

	if cfg.Model == "" {
		cfg.Model = cfg.providerModel()
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.Provider = getEnvOrDefault("MODEL_PROVIDER", c.Provider)
	c.Model = getEnvOrDefault("MODEL", c.Model)
	c.FeedPath = getEnvOrDefault("RSS_FILE", c.FeedPath)
	c.Timezone = getEnvOrDefault("FEED_TIMEZONE", c.Timezone)
	c.Channel.Title = getEnvOrDefault("FEED_TITLE", c.Channel.Title)
	c.Channel.Link = getEnvOrDefault("FEED_LINK", c.Channel.Link)
	c.Channel.Description = getEnvOrDefault("FEED_DESCRIPTION", c.Channel.Description)

	switch c.Provider {
	case ProviderGemini:
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	default:
		c.APIKey = os.Getenv("OPENAI_API_KEY")
		c.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", c.BaseURL)
	}

	c.DuplicateWindowDays = getEnvIntOrDefault("DUPLICATE_WINDOW_DAYS", c.DuplicateWindowDays)
	c.MaxTokens = getEnvIntOrDefault("MAX_TOKENS", c.MaxTokens)
	c.Temperature = getEnvFloatOrDefault("TEMPERATURE", c.Temperature)
	c.TopP = getEnvFloatOrDefault("TOP_P", c.TopP)

	if v := os.Getenv("INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.InsecureSkipVerify = b
		}
	}

	c.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	c.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	if debug := os.Getenv("DEBUG"); debug == "true" {
		c.Debug = true
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

// providerModel returns the configured model id of the selected provider.
func (c *Config) providerModel() string {
	if c.Provider == ProviderGemini {
		if c.GeminiModel != "" {
			return c.GeminiModel
		}
		return DefaultGeminiModel
	}
	if c.OpenAIModel != "" {
		return c.OpenAIModel
	}
	return DefaultOpenAIModel
}

// DuplicateWindow is the trailing window used for the duplicate check.
func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowDays) * 24 * time.Hour
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// TelegramEnabled reports whether both Telegram settings are present.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required", ErrMissingCredential)
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("MODEL_PROVIDER must be '%s' or '%s'", ProviderOpenAI, ProviderGemini)
	}
	if c.FeedPath == "" {
		return fmt.Errorf("RSS_FILE must not be empty")
	}
	if c.DuplicateWindowDays < 0 {
		return fmt.Errorf("DUPLICATE_WINDOW_DAYS must not be negative")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be between 0 and 2")
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("TOP_P must be in (0, 1]")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("FEED_TIMEZONE is invalid: %w", err)
	}
	return nil
}
