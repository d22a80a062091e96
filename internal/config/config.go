package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverRemote = "remote"
	DriverMySQL  = "mysql"
)

// Config holds all configuration for the dashboard server
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	LogLevel             string
	JWTSecret            string
	JWTExpirationMinutes int
	StoreDriver          string
	Remote               RemoteConfig
	Database             DatabaseConfig
	Redis                RedisConfig
}

// RemoteConfig points at the clinic API that owns the appointments
type RemoteConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
	Migrate  bool
}

// RedisConfig enables the directory cache when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Environment == "development"
}

// LoadConfig loads configuration from environment variables and an
// optional .env file in the working directory.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "default_jwt_secret")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 15)
	v.SetDefault("STORE_DRIVER", DriverRemote)
	v.SetDefault("REMOTE_API_URL", "http://localhost:5000")
	v.SetDefault("REMOTE_API_TOKEN", "")
	v.SetDefault("REMOTE_API_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "clinic")
	v.SetDefault("DB_MIGRATE", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DIRECTORY_CACHE_TTL", "5m")

	// A missing .env is fine; the environment wins either way.
	_ = v.ReadInConfig()

	remoteTimeout, err := parseDuration(v, "REMOTE_API_TIMEOUT")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration(v, "DIRECTORY_CACHE_TTL")
	if err != nil {
		return nil, err
	}

	jwtExpMinutes := v.GetInt("JWT_EXPIRATION_MINUTES")
	if jwtExpMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %q", v.GetString("JWT_EXPIRATION_MINUTES"))
	}

	dbConfig := DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
		Migrate:  v.GetBool("DB_MIGRATE"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	cfg := &Config{
		Port:                 v.GetString("PORT"),
		Origin:               v.GetString("ORIGIN"),
		Environment:          v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTExpirationMinutes: jwtExpMinutes,
		StoreDriver:          strings.ToLower(v.GetString("STORE_DRIVER")),
		Remote: RemoteConfig{
			URL:     strings.TrimRight(v.GetString("REMOTE_API_URL"), "/"),
			Token:   v.GetString("REMOTE_API_TOKEN"),
			Timeout: remoteTimeout,
		},
		Database: dbConfig,
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: cacheTTL,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverRemote:
		if c.Remote.URL == "" {
			return fmt.Errorf("REMOTE_API_URL is required when STORE_DRIVER is %q", DriverRemote)
		}
	case DriverMySQL:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverRemote, DriverMySQL, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
