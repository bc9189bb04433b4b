package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	Intel IntelConfig
	Chat  ChatConfig
}

type AppConfig struct {
	Env  string
	Port int
	Host string
}

// IntelConfig configures the external IP-lookup service client.
type IntelConfig struct {
	BaseURL        string
	Timeout        time.Duration
	CacheTTL       time.Duration
	RateLimitDelay time.Duration
}

// ChatConfig configures the conversation engine.
type ChatConfig struct {
	// ReplyDelay is how long a synthesized reply is held before delivery.
	ReplyDelay time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/etc/airis")

	// Environment variables
	viper.AutomaticEnv()

	bindEnvVars()
	setDefaults()

	// Try to read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("Error reading config file", "error", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetInt("APP_PORT"),
			Host: viper.GetString("APP_HOST"),
		},
		Intel: IntelConfig{
			BaseURL:        viper.GetString("INTEL_BASE_URL"),
			Timeout:        viper.GetDuration("INTEL_TIMEOUT"),
			CacheTTL:       viper.GetDuration("INTEL_CACHE_TTL"),
			RateLimitDelay: viper.GetDuration("INTEL_RATE_LIMIT"),
		},
		Chat: ChatConfig{
			ReplyDelay: viper.GetDuration("CHAT_REPLY_DELAY"),
		},
	}

	return config, nil
}

func bindEnvVars() {
	// App
	viper.BindEnv("APP_ENV")
	viper.BindEnv("APP_PORT")
	viper.BindEnv("APP_HOST")

	// Lookup service
	viper.BindEnv("INTEL_BASE_URL")
	viper.BindEnv("INTEL_TIMEOUT")
	viper.BindEnv("INTEL_CACHE_TTL")
	viper.BindEnv("INTEL_RATE_LIMIT")

	// Chat
	viper.BindEnv("CHAT_REPLY_DELAY")
}

func setDefaults() {
	// App defaults
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_HOST", "0.0.0.0")

	// Lookup service defaults
	viper.SetDefault("INTEL_BASE_URL", "http://127.0.0.1:8000")
	viper.SetDefault("INTEL_TIMEOUT", 10*time.Second)
	viper.SetDefault("INTEL_CACHE_TTL", 15*time.Minute)
	viper.SetDefault("INTEL_RATE_LIMIT", 200*time.Millisecond)

	// Chat defaults
	viper.SetDefault("CHAT_REPLY_DELAY", time.Second)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func SetupLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
