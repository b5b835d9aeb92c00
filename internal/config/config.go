// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Games     GamesConfig     `mapstructure:"games"`
	Farm      FarmConfig      `mapstructure:"farm"`
	Referral  ReferralConfig  `mapstructure:"referral"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug or release
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	// LogQueries traces every statement at debug level.
	LogQueries bool `mapstructure:"log_queries"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// AdminConfig lists the emails that are granted admin rights on registration.
type AdminConfig struct {
	Emails []string `mapstructure:"emails"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LedgerConfig holds money movement rules.
type LedgerConfig struct {
	TransferFeeRate float64 `mapstructure:"transfer_fee_rate"`
	MinTransfer     float64 `mapstructure:"min_transfer"`
	MaxTransfer     float64 `mapstructure:"max_transfer"`
	SubscriptionFee float64 `mapstructure:"subscription_fee"`
	WelcomeUSDT     float64 `mapstructure:"welcome_usdt"`
	WelcomeEGP      float64 `mapstructure:"welcome_egp"`
	WelcomeAsser    float64 `mapstructure:"welcome_asser"`
}

// GamesConfig holds the prediction game configuration.
type GamesConfig struct {
	RewardRate      float64 `mapstructure:"reward_rate"`
	MinStake        float64 `mapstructure:"min_stake"`
	DefaultDuration int     `mapstructure:"default_duration"`
	MaxDuration     int     `mapstructure:"max_duration"`
	// RandomFallback picks a random door for unknown formula ids instead of failing.
	RandomFallback bool `mapstructure:"random_fallback"`
}

// FarmConfig holds farm configuration.
type FarmConfig struct {
	MaxPlants        int           `mapstructure:"max_plants"`
	HarvestInterval  time.Duration `mapstructure:"harvest_interval"`
	WateringInterval time.Duration `mapstructure:"watering_interval"`
}

// ReferralConfig holds referral link configuration.
type ReferralConfig struct {
	LinkBase string `mapstructure:"link_base"` // public id is appended
}

// RateLimitConfig limits requests per user on money routes.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// TelegramConfig holds the admin notification bot configuration.
type TelegramConfig struct {
	Token        string  `mapstructure:"token"`
	AdminChatIDs []int64 `mapstructure:"admin_chat_ids"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslMode,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. DATABASE_HOST, AUTH_JWT_SECRET, GAMES_MIN_STAKE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional, env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "asser")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "asser")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.log_queries", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	v.SetDefault("admin.emails", []string{})

	v.SetDefault("log.level", "info")

	v.SetDefault("ledger.transfer_fee_rate", 0.02)
	v.SetDefault("ledger.min_transfer", 0.01)
	v.SetDefault("ledger.max_transfer", 10000)
	v.SetDefault("ledger.subscription_fee", 5)
	v.SetDefault("ledger.welcome_usdt", 100)
	v.SetDefault("ledger.welcome_egp", 500)
	v.SetDefault("ledger.welcome_asser", 50)

	v.SetDefault("games.reward_rate", 0.02)
	v.SetDefault("games.min_stake", 10)
	v.SetDefault("games.default_duration", 100)
	v.SetDefault("games.max_duration", 3600)
	v.SetDefault("games.random_fallback", false)

	v.SetDefault("farm.max_plants", 6)
	v.SetDefault("farm.harvest_interval", "24h")
	v.SetDefault("farm.watering_interval", "4h")

	v.SetDefault("referral.link_base", "https://assercoin.com/ref/")

	v.SetDefault("ratelimit.requests", 30)
	v.SetDefault("ratelimit.window", "1m")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_ids", []int64{})
}

// Validate checks values that would make the ledger misbehave.
func (c *Config) Validate() error {
	if c.Ledger.MinTransfer <= 0 || c.Ledger.MaxTransfer < c.Ledger.MinTransfer {
		return fmt.Errorf("invalid transfer limits: min=%v max=%v", c.Ledger.MinTransfer, c.Ledger.MaxTransfer)
	}
	if c.Ledger.TransferFeeRate < 0 {
		return fmt.Errorf("transfer fee rate must not be negative")
	}
	if c.Games.MinStake <= 0 {
		return fmt.Errorf("min stake must be positive")
	}
	if c.Games.MaxDuration <= 0 {
		return fmt.Errorf("max game duration must be positive")
	}
	if c.Farm.MaxPlants <= 0 {
		return fmt.Errorf("max plants must be positive")
	}
	if c.Farm.HarvestInterval <= 0 || c.Farm.WateringInterval <= 0 {
		return fmt.Errorf("farm intervals must be positive")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}

// IsAdminEmail checks if an email is in the admin list.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.Admin.Emails {
		if strings.EqualFold(strings.TrimSpace(e), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// Dec converts a configured float into a decimal amount.
func Dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
