package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// HTTP
	HTTPAddr          string `env:"HTTP_ADDR" envDefault:":8080"`
	PublicBaseURL     string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	TrustProxyHeaders bool   `env:"TRUST_PROXY_HEADERS" envDefault:"true"` // honour Client-IP / X-Forwarded-For

	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/hdforms.db"`
	TablePrefix  string `env:"TABLE_PREFIX" envDefault:"wp_"`

	// Uploads
	UploadDir string `env:"UPLOAD_DIR" envDefault:"./data/uploads/form-submissions"`

	// Site
	SiteName   string `env:"SITE_NAME" envDefault:"HD Forms"`
	AdminEmail string `env:"ADMIN_EMAIL"`
	Timezone   string `env:"TIMEZONE" envDefault:"Europe/Berlin"`

	// Admin API
	JWTSecret string `env:"ADMIN_JWT_SECRET,required"`
	CSRFKey   string `env:"CSRF_KEY,required"`

	// Rate limiting
	SweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1h"`
	BurstRPS      float64       `env:"BURST_RPS" envDefault:"1"`
	BurstSize     int           `env:"BURST_SIZE" envDefault:"10"`
	BurstIdleTTL  time.Duration `env:"BURST_IDLE_TTL" envDefault:"15m"`

	// SMTP (optional, notifications are skipped without a host)
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// IMAP archive of sent notifications (optional)
	IMAPArchiveServer   string        `env:"IMAP_ARCHIVE_SERVER"` // host:port, TLS
	IMAPArchiveUsername string        `env:"IMAP_ARCHIVE_USERNAME"`
	IMAPArchivePassword string        `env:"IMAP_ARCHIVE_PASSWORD"`
	IMAPArchiveMailbox  string        `env:"IMAP_ARCHIVE_MAILBOX" envDefault:"Sent"`
	IMAPDialTimeout     time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`

	// Telegram alerts (optional)
	TelegramToken   string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID  int64  `env:"TELEGRAM_CHAT_ID"`
	TelegramTopicID int    `env:"TELEGRAM_TOPIC_ID"`

	// Redis intake statistics (optional)
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsPrefix   string        `env:"STATS_PREFIX" envDefault:"hdforms:intake"`
	StatsTTL      time.Duration `env:"STATS_TTL" envDefault:"168h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// SMTPEnabled returns true if an SMTP relay is configured
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// IMAPArchiveEnabled returns true if sent notifications should be archived
func (c *Config) IMAPArchiveEnabled() bool {
	return c.IMAPArchiveServer != "" && c.IMAPArchiveUsername != ""
}

// TelegramEnabled returns true if Telegram alerts are configured
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// RedisEnabled returns true if intake statistics should be recorded
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Location returns the time zone used for "today" counts and mail dates
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// securecookie wants at least 32 bytes of hash key
	if len(c.CSRFKey) < 32 {
		return fmt.Errorf("CSRF_KEY must be at least 32 bytes, got %d", len(c.CSRFKey))
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 16 bytes, got %d", len(c.JWTSecret))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.BurstRPS <= 0 || c.BurstSize <= 0 {
		return fmt.Errorf("BURST_RPS and BURST_SIZE must be positive")
	}
	return nil
}
