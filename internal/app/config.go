package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"45s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"72h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	WebhookURL     string        `envconfig:"WEBHOOK_URL" required:"true"`
	WebhookTimeout time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"20s"`
	LeadSourceTag  string        `envconfig:"LEAD_SOURCE_TAG" default:"react_form"`
	SubmitLockTTL  time.Duration `envconfig:"SUBMIT_LOCK_TTL" default:"45s"`
	SubmitDedupTTL time.Duration `envconfig:"SUBMIT_DEDUP_TTL" default:"10m"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	AckEnabled bool   `envconfig:"ACK_ENABLED" default:"false"`
	MailDriver string `envconfig:"MAIL_DRIVER" default:"smtp"`
	SMTPHost   string `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	SMTPPort   int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom   string `envconfig:"SMTP_FROM" default:"no-reply@bigcity.local"`
	AWSRegion  string `envconfig:"AWS_REGION" default:"ap-south-1"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	u, err := url.ParseRequestURI(c.WebhookURL)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("webhook url must be an absolute http(s) url, got %q", c.WebhookURL)
	}
	if c.WebhookTimeout <= 0 {
		return errors.New("webhook timeout must be positive")
	}
	if c.MailDriver != "smtp" && c.MailDriver != "ses" {
		return fmt.Errorf("mail driver must be smtp or ses, got %q", c.MailDriver)
	}
	if c.SubmitDedupTTL <= 0 {
		return errors.New("submit dedup ttl must be positive")
	}
	if c.SubmitLockTTL < c.WebhookTimeout {
		return fmt.Errorf("submit lock ttl %s must cover webhook timeout %s", c.SubmitLockTTL, c.WebhookTimeout)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
