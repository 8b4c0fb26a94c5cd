package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
// The same file serves both binaries: the terminal reads the API_* / ALERT_* /
// SOUND_* / TICKET_* group, the sandbox reads the SANDBOX_* / JWT_* group.
type Config struct {
	// Terminal → backend
	APIBaseURL        string        `mapstructure:"API_BASE_URL"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	DefaultPageSize   int           `mapstructure:"DEFAULT_PAGE_SIZE"`
	AlertPollInterval time.Duration `mapstructure:"ALERT_POLL_INTERVAL"`
	CompletedReset    time.Duration `mapstructure:"COMPLETED_RESET"`
	SoundEnabled      bool          `mapstructure:"SOUND_ENABLED"`
	TicketDir         string        `mapstructure:"TICKET_DIR"`

	// Product lookup cache (optional — empty URL disables it)
	RedisURL         string        `mapstructure:"REDIS_URL"`
	ProductoCacheTTL time.Duration `mapstructure:"PRODUCTO_CACHE_TTL"`

	// Sandbox backend
	SandboxPort    int    `mapstructure:"SANDBOX_PORT"`
	SandboxEnv     string `mapstructure:"SANDBOX_ENV"` // development | production
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("REQUEST_TIMEOUT", "10s")
	viper.SetDefault("DEFAULT_PAGE_SIZE", 20)
	viper.SetDefault("ALERT_POLL_INTERVAL", "30s")
	viper.SetDefault("COMPLETED_RESET", "4s")
	viper.SetDefault("SOUND_ENABLED", true)
	viper.SetDefault("TICKET_DIR", "/tmp/mostrador/tickets")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PRODUCTO_CACHE_TTL", "5m")
	viper.SetDefault("SANDBOX_PORT", 8000)
	viper.SetDefault("SANDBOX_ENV", "development")
	viper.SetDefault("JWT_SECRET", "sandbox-dev-secret")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 8)

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
