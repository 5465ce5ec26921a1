package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds everything the server needs at startup.
type Config struct {
	AppPort  string
	Database DatabaseConfig
	Auth     AuthConfig
	RabbitMQ RabbitMQConfig
	Log      LogConfig
	CORS     CORSConfig
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

// RabbitMQConfig is optional: an empty URL disables product events.
// AuditConsumer makes the server drain the product_events queue itself, which
// competes with any other consumer of that queue.
type RabbitMQConfig struct {
	URL           string
	AuditConsumer bool
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowOrigins string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_DSN", "InsightPro.db")
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("JWT_ISSUER", "insightpro")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_AUDIT_CONSUMER", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "logfmt")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the real environment. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from v, which is expected to have
// AutomaticEnv enabled. Every problem found is reported at once.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var problems []string

	cfg := &Config{
		AppPort: v.GetString("APP_PORT"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			DSN:    v.GetString("DB_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			TokenTTL:   v.GetDuration("JWT_TTL"),
			Issuer:     v.GetString("JWT_ISSUER"),
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           v.GetString("RABBITMQ_URL"),
			AuditConsumer: v.GetBool("RABBITMQ_AUDIT_CONSUMER"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		CORS: CORSConfig{AllowOrigins: v.GetString("CORS_ALLOW_ORIGINS")},
	}

	if cfg.AppPort != "" && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}

	switch cfg.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if cfg.Database.DSN == "" {
			problems = append(problems, "DB_DSN must be set for driver "+cfg.Database.Driver)
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", cfg.Database.Driver))
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		problems = append(problems, "missing required setting: JWT_SECRET")
	}
	if cfg.Auth.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("JWT_TTL must be a positive duration, got %q", v.GetString("JWT_TTL")))
	}
	// bcrypt accepts costs 4..31.
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between 4 and 31, got %d", cfg.Auth.BcryptCost))
	}

	switch cfg.Log.Format {
	case "logfmt", "json":
	default:
		problems = append(problems, fmt.Sprintf("unsupported LOG_FORMAT %q", cfg.Log.Format))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}
	return cfg, nil
}
