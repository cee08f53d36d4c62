package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USER"`
	Password string `env:"PASS"`
	From     string `env:"FROM"`
}

// Configured 缺少任意一项时邮件服务不可用
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.Username != "" && c.Password != "" && c.From != ""
}

type TwitterConfig struct {
	APIKey       string `env:"API_KEY"`
	APISecret    string `env:"API_SECRET"`
	AccessToken  string `env:"ACCESS_TOKEN"`
	AccessSecret string `env:"ACCESS_SECRET"`
}

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	DatabaseURL    string        `env:"DATABASE_URL" envDefault:"host=localhost user=postgres password=postgres dbname=newsroom port=5432 sslmode=disable"`
	SessionSecret  string        `env:"SESSION_SECRET" envDefault:"secret_key_change_me"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"jwt_secret_change_me"`
	JWTTTL         time.Duration `env:"JWT_TTL" envDefault:"24h"`
	SiteURL        string        `env:"SITE_URL" envDefault:"http://127.0.0.1:8080"`
	MediaRoot      string        `env:"MEDIA_ROOT" envDefault:"./media"`
	SeedPublishers []string      `env:"SEED_PUBLISHERS" envSeparator:","`

	SMTP         SMTPConfig    `envPrefix:"SMTP_"`
	EmailEnabled bool          `env:"EMAIL_ENABLED" envDefault:"true"`
	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"15s"`

	SocialPostingEnabled bool          `env:"SOCIAL_POSTING_ENABLED" envDefault:"false"`
	SocialTimeout        time.Duration `env:"SOCIAL_TIMEOUT" envDefault:"30s"`
	Twitter              TwitterConfig `envPrefix:"TWITTER_"`

	DispatchAsync     bool `env:"DISPATCH_ASYNC" envDefault:"false"`
	DispatchWorkers   int  `env:"DISPATCH_WORKERS" envDefault:"2"`
	DispatchQueueSize int  `env:"DISPATCH_QUEUE_SIZE" envDefault:"256"`

	RedeliveryInterval  time.Duration `env:"REDELIVERY_INTERVAL" envDefault:"10m"`
	RedeliveryGrace     time.Duration `env:"REDELIVERY_GRACE" envDefault:"2m"`
	MaxDeliveryAttempts int           `env:"MAX_DELIVERY_ATTEMPTS" envDefault:"5"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load 先读取 .env，再解析环境变量
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading env vars from system")
	}
	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DispatchWorkers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.DispatchWorkers)
	}
	if c.DispatchQueueSize < 1 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be at least 1, got %d", c.DispatchQueueSize)
	}
	if c.EmailTimeout <= 0 || c.SocialTimeout <= 0 {
		return fmt.Errorf("EMAIL_TIMEOUT and SOCIAL_TIMEOUT must be positive")
	}
	if c.MaxDeliveryAttempts < 1 {
		return fmt.Errorf("MAX_DELIVERY_ATTEMPTS must be at least 1, got %d", c.MaxDeliveryAttempts)
	}
	if c.RedeliveryGrace < 0 {
		return fmt.Errorf("REDELIVERY_GRACE must not be negative")
	}
	return nil
}

// Notify 构造分发器使用的通知配置，只有四个 Twitter 密钥齐全时才带凭据
func (c *Config) Notify() NotifyConfig {
	nc := NotifyConfig{
		EmailEnabled:         c.EmailEnabled && c.SMTP.Configured(),
		SocialPostingEnabled: c.SocialPostingEnabled,
		SiteURL:              c.SiteURL,
		EmailTimeout:         c.EmailTimeout,
		SocialTimeout:        c.SocialTimeout,
		MaxAttempts:          c.MaxDeliveryAttempts,
	}
	creds := &SocialCredentials{
		APIKey:       c.Twitter.APIKey,
		APISecret:    c.Twitter.APISecret,
		AccessToken:  c.Twitter.AccessToken,
		AccessSecret: c.Twitter.AccessSecret,
	}
	if creds.Complete() {
		nc.SocialCredentials = creds
	}
	return nc
}
