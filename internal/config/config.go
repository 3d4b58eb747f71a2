package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the docsgpt server
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Chat      ChatConfig      `mapstructure:"chat"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds the Postgres connection configuration. The same
// database carries the documentation corpus and the usage ledger.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// OpenAIConfig holds credentials and model identifiers for the
// embedding and completion services
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	ChatModel      string `mapstructure:"chat_model"`
}

// ChatConfig holds chat pipeline tuning
type ChatConfig struct {
	// TokenBudget caps the cumulative token count of retrieved context.
	TokenBudget int `mapstructure:"token_budget"`
	// StepTimeout bounds each pre-stream upstream call (embed, retrieve).
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	// StreamTimeout bounds the total duration of one completion stream.
	StreamTimeout time.Duration `mapstructure:"stream_timeout"`
}

// RateLimitConfig holds the per-client usage limit
type RateLimitConfig struct {
	// MaxRequests is the highest recorded count that still admits a
	// request, so MaxRequests+1 requests fit in one window.
	MaxRequests int64         `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables, e.g. DOCSGPT_DATABASE_URL, DOCSGPT_OPENAI_API_KEY
	v.SetEnvPrefix("DOCSGPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.url", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.embedding_model", "text-embedding-ada-002")
	v.SetDefault("openai.chat_model", "gpt-4-1106-preview")

	v.SetDefault("chat.token_budget", 1700)
	v.SetDefault("chat.step_timeout", 15*time.Second)
	v.SetDefault("chat.stream_timeout", 2*time.Minute)

	v.SetDefault("rate_limit.max_requests", 5)
	v.SetDefault("rate_limit.window", 10*time.Minute)
}

// Validate checks the startup-fatal requirements. Missing connection or
// credential configuration aborts the process rather than failing
// individual requests.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required (DOCSGPT_DATABASE_URL)")
	}
	if c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required (DOCSGPT_OPENAI_API_KEY)")
	}
	if c.Chat.TokenBudget <= 0 {
		return errors.New("chat.token_budget must be positive")
	}
	if c.RateLimit.MaxRequests < 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate_limit.max_requests and rate_limit.window must be positive")
	}
	return nil
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
