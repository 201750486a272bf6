package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/Relay/internal/events"
	"github.com/dkeye/Relay/internal/identity"
	"github.com/dkeye/Relay/internal/ratelimit"
	"github.com/dkeye/Relay/internal/store"
)

const devSecret = "relay-dev-secret"

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type AuthConfig struct {
	identity.Config   `mapstructure:",squash"`
	RequireSignalAuth bool `mapstructure:"require_signal_auth"`
}

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	StaticPath  string        `mapstructure:"static_path"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	SendBuffer  int           `mapstructure:"send_buffer"`
	Secret      string        `mapstructure:"secret"`
	LogLevel    string        `mapstructure:"log_level"`
	HistorySize int           `mapstructure:"history_size"`

	Database   store.Config          `mapstructure:"database"`
	Auth       AuthConfig            `mapstructure:"auth"`
	Redis      ratelimit.RedisConfig `mapstructure:"redis"`
	RateLimit  ratelimit.Config      `mapstructure:"ratelimit"`
	AMQP       events.Config         `mapstructure:"amqp"`
	ICEServers []ICEServer           `mapstructure:"ice_servers"`
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml (or CONFIG_FILE), then
// RELAY_* environment overrides such as RELAY_DATABASE_DSN.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("db", cfg.Database.Driver).
		Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", devSecret)
	v.SetDefault("log_level", "info")
	v.SetDefault("history_size", 50)

	v.SetDefault("database.driver", store.DriverSQLite)
	v.SetDefault("database.dsn", "relay.db")

	v.SetDefault("auth.jwt_secret", devSecret)
	v.SetDefault("auth.issuer", "relay")
	v.SetDefault("auth.require_signal_auth", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ratelimit.limit", 20)
	v.SetDefault("ratelimit.interval", "1s")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", events.DefaultExchange)

	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("ping_period must be positive, got %s", c.PingPeriod)
	}
	if c.Mode == "release" && (c.Secret == devSecret || c.Auth.Secret == devSecret) {
		log.Warn().Str("module", "config").Msg("running release mode with development secrets")
	}
	return nil
}
