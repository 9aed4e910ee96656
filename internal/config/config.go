package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	TransportPolling = "polling"
	TransportWebhook = "webhook"
)

type Config struct {
	BotToken string `env:"BOT_TOKEN,required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Port     int    `env:"PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://database.db"`
	RedisURL    string `env:"REDIS_URL"`

	TranslationCacheTTLSeconds int `env:"TRANSLATION_CACHE_TTL_SECONDS" envDefault:"86400"`

	TokenPoolSize int    `env:"TOKEN_POOL_SIZE" envDefault:"100"`
	DefaultModel  string `env:"DEFAULT_MODEL" envDefault:"phi3"`

	OllamaURL         string  `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaTemperature float64 `env:"OLLAMA_TEMPERATURE" envDefault:"0.75"`
	OllamaTopP        float64 `env:"OLLAMA_TOP_P" envDefault:"1"`
	OllamaMaxTokens   int     `env:"OLLAMA_MAX_TOKENS" envDefault:"2000"`

	TranslateURL  string `env:"TRANSLATE_URL" envDefault:"https://translate.googleapis.com/translate_a/single"`
	PivotLanguage string `env:"PIVOT_LANGUAGE" envDefault:"en"`
	ReplyLanguage string `env:"REPLY_LANGUAGE" envDefault:"ru"`

	ResourcesDir string `env:"RESOURCES_DIR" envDefault:"resources"`
	FontFile     string `env:"FONT_FILE" envDefault:"Andy_Bold_0.otf"`

	TransportMode string `env:"TRANSPORT_MODE" envDefault:"polling"`
	WebhookURL    string `env:"WEBHOOK_URL"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	MemeRetentionHours int `env:"MEME_RETENTION_HOURS" envDefault:"24"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) FontsDir() string {
	return filepath.Join(c.ResourcesDir, "fonts")
}

func (c *Config) ImagesDir() string {
	return filepath.Join(c.ResourcesDir, "images")
}

func (c *Config) MemesDir() string {
	return filepath.Join(c.ResourcesDir, "memes")
}

func (c *Config) FontPath() string {
	return filepath.Join(c.FontsDir(), c.FontFile)
}

func (c *Config) TranslationCacheTTL() time.Duration {
	return time.Duration(c.TranslationCacheTTLSeconds) * time.Second
}

func (c *Config) MemeRetention() time.Duration {
	return time.Duration(c.MemeRetentionHours) * time.Hour
}

func (c *Config) Validate() error {
	switch c.TransportMode {
	case TransportPolling:
	case TransportWebhook:
		if c.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required when TRANSPORT_MODE=webhook")
		}
		if len(c.WebhookSecret) < 16 {
			return fmt.Errorf("WEBHOOK_SECRET must be at least 16 characters in webhook mode")
		}
	default:
		return fmt.Errorf("unknown TRANSPORT_MODE %q (expected %s or %s)", c.TransportMode, TransportPolling, TransportWebhook)
	}

	if c.TokenPoolSize <= 0 {
		return fmt.Errorf("TOKEN_POOL_SIZE must be positive")
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		return fmt.Errorf("DEFAULT_MODEL must not be empty")
	}

	if c.RedisURL == "" {
		log.Warn().Msg("REDIS_URL is empty: translation cache disabled")
	}

	return nil
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
