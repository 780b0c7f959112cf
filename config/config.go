package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Application / logging
	App AppConfig `mapstructure:"app"`

	// HTTP listener
	Server ServerConfig `mapstructure:"server"`

	// Short code allocation
	Shorten ShortenConfig `mapstructure:"shorten"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// Rate limiting (Redis backed)
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// IsDevelopment reports whether the process runs outside production.
func (c AppConfig) IsDevelopment() bool {
	return c.Env != "production"
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    string        `mapstructure:"allow_origins"`
}

type ShortenConfig struct {
	CodeBytes     int     `mapstructure:"code_bytes"`
	MaxAttempts   int     `mapstructure:"max_attempts"`
	BloomCapacity uint    `mapstructure:"bloom_capacity"`
	BloomFPRate   float64 `mapstructure:"bloom_fp_rate"`
	BloomSeed     bool    `mapstructure:"bloom_seed"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type NATSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the rest of the application cannot work with.
func (c *Config) Validate() error {
	// Hex doubles the byte count and short_code is VARCHAR(10).
	if c.Shorten.CodeBytes < 1 || c.Shorten.CodeBytes > 5 {
		return fmt.Errorf("config: shorten.code_bytes must be between 1 and 5, got %d", c.Shorten.CodeBytes)
	}
	if c.Shorten.MaxAttempts < 1 {
		return fmt.Errorf("config: shorten.max_attempts must be at least 1, got %d", c.Shorten.MaxAttempts)
	}
	if c.RateLimit.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("config: rate_limit requires redis.enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allow_origins", "*")

	v.SetDefault("shorten.code_bytes", 4)
	v.SetDefault("shorten.max_attempts", 3)
	v.SetDefault("shorten.bloom_capacity", 1_000_000)
	v.SetDefault("shorten.bloom_fp_rate", 0.001)
	v.SetDefault("shorten.bloom_seed", true)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.cache_ttl", 24*time.Hour)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.host", "localhost")
	v.SetDefault("nats.port", 4222)

	v.SetDefault("prometheus.enabled", false)
	v.SetDefault("prometheus.port", 9090)
}

func bindEnvVars(v *viper.Viper) {
	// Application
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.log_level", "LOG_LEVEL")
	v.BindEnv("app.log_file", "LOG_FILE")

	// Server
	v.BindEnv("server.addr", "SERVER_ADDR")
	v.BindEnv("server.base_url", "BASE_URL", "PUBLIC_BASE_URL")

	// PostgreSQL (POSTGRES_* wins over the shorter PG_* names)
	v.BindEnv("postgres.host", "POSTGRES_HOST", "PG_HOST")
	v.BindEnv("postgres.user", "POSTGRES_USER", "PG_USER")
	v.BindEnv("postgres.password", "POSTGRES_PASSWORD", "PG_PASSWORD")
	v.BindEnv("postgres.database", "POSTGRES_DB", "PG_DB")
	v.BindEnv("postgres.port", "POSTGRES_PORT", "PG_PORT")
	v.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.enabled", "NATS_ENABLED")
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")
}
