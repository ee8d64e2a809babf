package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// SPRACHIZ_DATABASE_DRIVER or SPRACHIZ_LLM_PROVIDER.
const EnvPrefix = "SPRACHIZ"

// Config holds all configuration for the application.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DSN    string `mapstructure:"dsn"`    // file path for sqlite, connection string for postgres
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

// LLMConfig configures the dialogue model provider.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string        `mapstructure:"openai_base_url"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	OpenRouterKey   string        `mapstructure:"openrouter_api_key"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// ReminderConfig configures the review reminder job.
type ReminderConfig struct {
	Schedule      string `mapstructure:"schedule"`
	QuietStart    int    `mapstructure:"quiet_start"` // hour of day, 0-23
	QuietEnd      int    `mapstructure:"quiet_end"`
	TelegramToken string `mapstructure:"telegram_token"`
	Concurrency   int    `mapstructure:"concurrency"`
}

// Load reads configuration from an optional file, a .env file in the working
// directory and SPRACHIZ_* environment variables, in increasing priority.
// An empty path searches for sprachiz.yaml in the working directory and
// $XDG_CONFIG_HOME/sprachiz.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sprachiz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(dir + "/sprachiz")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Reminder.QuietStart < 0 || c.Reminder.QuietStart > 23 || c.Reminder.QuietEnd < 0 || c.Reminder.QuietEnd > 23 {
		return fmt.Errorf("reminder quiet hours must be within 0-23")
	}
	if c.Reminder.Concurrency < 1 {
		return fmt.Errorf("reminder.concurrency must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_base_url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.openrouter_api_key", "")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("reminder.schedule", "0 * * * *")
	v.SetDefault("reminder.quiet_start", 22)
	v.SetDefault("reminder.quiet_end", 8)
	v.SetDefault("reminder.telegram_token", "")
	v.SetDefault("reminder.concurrency", 4)
}
