package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment   string `envconfig:"ENV" default:"development"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	DBDSN         string `envconfig:"DB_DSN" required:"true"`
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`

	DefaultCourseTimezone string `envconfig:"DEFAULT_COURSE_TIMEZONE" default:"UTC"`

	ConferenceBaseURL     string        `envconfig:"CONFERENCE_BASE_URL" default:"https://meet.jit.si"`
	ConferenceCheck       bool          `envconfig:"CONFERENCE_CHECK" default:"false"`
	MeetingConfirmTimeout time.Duration `envconfig:"MEETING_CONFIRM_TIMEOUT" default:"15s"`
	StaleSweepInterval    time.Duration `envconfig:"STALE_SWEEP_INTERVAL" default:"1m"`

	RabbitURL       string `envconfig:"RABBIT_URL"`
	MeetingExchange string `envconfig:"MEETING_EXCHANGE" default:"lesson.exchange"`

	OtelEndpoint string `envconfig:"OTEL_ENDPOINT"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет значения, которые envconfig проверить не может
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}
	if _, err := time.LoadLocation(c.DefaultCourseTimezone); err != nil {
		return fmt.Errorf("DEFAULT_COURSE_TIMEZONE: %w", err)
	}
	if c.MeetingConfirmTimeout <= 0 {
		return fmt.Errorf("MEETING_CONFIRM_TIMEOUT must be positive")
	}
	if c.StaleSweepInterval <= 0 {
		return fmt.Errorf("STALE_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
