package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var Module = fx.Provide(NewConfig)

type (
	Config struct {
		Host       string `mapstructure:"HOST"`
		Port       string `mapstructure:"PORT"`
		GRPCPort   string `mapstructure:"GRPC_PORT"`
		DBDriver   string `mapstructure:"DB_DRIVER"`
		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
		DBSSLMode  string `mapstructure:"DB_SSL_MODE"`
		SQLitePath string `mapstructure:"SQLITE_PATH"`

		JWTSecret     string        `mapstructure:"JWT_SECRET"`
		JWTTTL        time.Duration `mapstructure:"JWT_TTL"`
		AuthCookie    string        `mapstructure:"AUTH_COOKIE"`
		RefreshCookie string        `mapstructure:"REFRESH_COOKIE"`
		CookieSecure  bool          `mapstructure:"COOKIE_SECURE"`
		BcryptCost    int           `mapstructure:"BCRYPT_COST"`

		LogLevel       string `mapstructure:"LOG_LEVEL"`
		LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`
	}
)

var defaults = map[string]interface{}{
	"HOST":            "0.0.0.0",
	"PORT":            "1323",
	"GRPC_PORT":       "9000",
	"DB_DRIVER":       DriverPostgres,
	"DB_HOST":         "0.0.0.0",
	"DB_PORT":         "5432",
	"DB_USER":         "user",
	"DB_PASSWORD":     "password",
	"DB_NAME":         "db",
	"DB_SSL_MODE":     sslModeDisable,
	"SQLITE_PATH":     "bookmarker.db",
	"JWT_SECRET":      "",
	"JWT_TTL":         "24h",
	"AUTH_COOKIE":     "my-app-auth",
	"REFRESH_COOKIE":  "my-refresh-token",
	"COOKIE_SECURE":   true,
	"BCRYPT_COST":     14,
	"LOG_LEVEL":       "info",
	"LOG_DEVELOPMENT": false,
}

func NewConfig() (*Config, error) {
	// a missing .env is fine, the environment may be set by the deployment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BOOKMARKER")

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

func (c *Config) HTTPListen() string {
	return c.Host + ":" + c.Port
}

func (c *Config) GRPCListen() string {
	return c.Host + ":" + c.GRPCPort
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func validate(cfg *Config) error {
	switch cfg.DBDriver {
	case DriverPostgres:
		if err := validateSSLMode(cfg.DBSSLMode); err != nil {
			return err
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return errors.New("SQLite path is empty")
		}
	default:
		return errors.Errorf("DB driver is invalid: %s", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		return errors.New("JWT secret is empty")
	}
	if cfg.JWTTTL <= 0 {
		return errors.Errorf("JWT TTL must be positive: %s", cfg.JWTTTL)
	}
	if cfg.AuthCookie == "" {
		return errors.New("auth cookie name is empty")
	}
	return nil
}

func validateSSLMode(mode string) error {
	validSSLValues := []string{sslModeDisable, sslModeRequire}
	for _, validValue := range validSSLValues {
		if mode == validValue {
			return nil
		}
	}
	return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", mode))
}
