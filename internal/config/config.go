package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE"`

	Database Database
	JWT      JWT
	TMDb     TMDb
	Storage  Storage
	Mail     Mail
	Log      Log

	// CursorMode selects how pagination cursors are encoded: "id" or "keyset".
	CursorMode string `env:"CURSOR_MODE" envDefault:"id"`
}

type Database struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	Path            string        `env:"DB_PATH" envDefault:"cinemesh.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	LogQueries      bool          `env:"DB_LOG_QUERIES" envDefault:"false"`
}

type JWT struct {
	Secret       string `env:"JWT_SECRET,required"`
	ExpiresHours int    `env:"JWT_EXPIRES_HOURS" envDefault:"24"`
}

func (j JWT) TTL() time.Duration {
	return time.Duration(j.ExpiresHours) * time.Hour
}

type TMDb struct {
	APIKey  string `env:"TMDB_API_KEY"`
	BaseURL string `env:"TMDB_BASE_URL" envDefault:"https://api.themoviedb.org/3"`
}

type Storage struct {
	Dir     string        `env:"STORAGE_DIR" envDefault:"./data/media"`
	BaseURL string        `env:"STORAGE_BASE_URL" envDefault:"http://localhost:8080"`
	URLTTL  time.Duration `env:"STORAGE_URL_TTL" envDefault:"15m"`
}

type Mail struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	From         string `env:"MAIL_FROM" envDefault:"Cinemesh <no-reply@cinemesh.local>"`
}

// Enabled reports whether an SMTP relay is configured.
func (m Mail) Enabled() bool {
	return m.SMTPHost != ""
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	File   string `env:"LOG_FILE"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.CursorMode {
	case "id", "keyset":
	default:
		return fmt.Errorf("unsupported CURSOR_MODE %q", c.CursorMode)
	}
	if c.JWT.ExpiresHours <= 0 {
		return fmt.Errorf("JWT_EXPIRES_HOURS must be positive")
	}
	return nil
}
