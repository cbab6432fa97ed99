package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chantier/avancement/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Cache      CacheConfig
	Auth       AuthConfig
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address      string        `validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
	// ConnectTimeout bounds the retries of the initial connection
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

type AuthConfig struct {
	Enabled bool
	Secret  string
	// DefaultUserID is the acting user when auth is disabled
	DefaultUserID string       `mapstructure:"default_user_id"`
	APIKey        APIKeyConfig `mapstructure:"api_key"`
}

type APIKeyConfig struct {
	Header string
	// Keys maps the sha256 of a raw key to its owner
	Keys map[string]APIKeyDetails
}

type APIKeyDetails struct {
	TenantID string `mapstructure:"tenant_id"`
	UserID   string `mapstructure:"user_id"`
	Name     string
	IsActive bool `mapstructure:"is_active"`
}

func NewConfig() (*Configuration, error) {
	// a local .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/chantier")

	v.SetEnvPrefix("CHANTIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.connect_timeout", 30*time.Second)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("auth.default_user_id", types.DefaultUserID)
	v.SetDefault("auth.api_key.header", "x-api-key")
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.environment", types.ModeLocal)
	v.SetDefault("sentry.sample_rate", 1.0)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Auth.Enabled && c.Auth.Secret == "" && len(c.Auth.APIKey.Keys) == 0 {
		return errors.New("auth is enabled but neither a jwt secret nor api keys are configured")
	}
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		return errors.New("sentry is enabled but no dsn is configured")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true, TTL: 10 * time.Minute},
		Auth:       AuthConfig{DefaultUserID: types.DefaultUserID, APIKey: APIKeyConfig{Header: "x-api-key"}},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
