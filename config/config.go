package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" default:"8080"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" envconfig:"DB_HOST"`
	Port         int    `mapstructure:"port" envconfig:"DB_PORT"`
	User         string `mapstructure:"user" envconfig:"DB_USER"`
	Password     string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name         string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode      string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type AuthConfig struct {
	// ProviderSecret verifies identity-provider session tokens;
	// LocalSecret signs and verifies service-issued tokens.
	ProviderSecret     string        `mapstructure:"provider_secret" envconfig:"AUTH_PROVIDER_SECRET"`
	LocalSecret        string        `mapstructure:"local_secret" envconfig:"AUTH_LOCAL_SECRET"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_token_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"`
	IdentityCacheTTL   time.Duration `mapstructure:"identity_cache_ttl"`
}

type StripeConfig struct {
	SecretKey       string `mapstructure:"secret_key" envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret   string `mapstructure:"webhook_secret" envconfig:"STRIPE_WEBHOOK_SECRET"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type OutboxConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LoadConfig reads config.yml and then applies environment overrides, so
// deployments can keep secrets out of the file.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	if err := viper.ReadInConfig(); err != nil {
		// Environment-only deployments carry no config file.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Auth.AccessTokenExpiry == 0 {
		cfg.Auth.AccessTokenExpiry = 24 * time.Hour
	}
	if cfg.Auth.RefreshTokenExpiry == 0 {
		cfg.Auth.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	if cfg.Auth.IdentityCacheTTL == 0 {
		cfg.Auth.IdentityCacheTTL = 2 * time.Minute
	}
	if cfg.Stripe.DefaultCurrency == "" {
		cfg.Stripe.DefaultCurrency = "usd"
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 50
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 100
	}
	if cfg.Outbox.BatchSize == 0 {
		cfg.Outbox.BatchSize = 50
	}
	if cfg.Outbox.PollInterval == 0 {
		cfg.Outbox.PollInterval = 5 * time.Second
	}
}
