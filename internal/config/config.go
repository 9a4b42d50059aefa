package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port" envconfig:"SERVER_PORT"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" envconfig:"SERVER_TIMEOUT_SECONDS"`
}

// AuthConfig describes the external identity provider integration. Namespace
// prefixes the role and permission claim keys in the shared claims space.
type AuthConfig struct {
	Namespace      string `mapstructure:"namespace" envconfig:"AUTH_NAMESPACE"`
	CookieName     string `mapstructure:"cookie_name" envconfig:"AUTH_COOKIE_NAME"`
	SessionTTLMins int    `mapstructure:"session_ttl_minutes" envconfig:"AUTH_SESSION_TTL_MINUTES"`
}

func (c AuthConfig) SessionTTL() time.Duration {
	if c.SessionTTLMins <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.SessionTTLMins) * time.Minute
}

// BackendConfig points at the external registry/document-store API.
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url" envconfig:"BACKEND_BASE_URL"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" envconfig:"BACKEND_TIMEOUT_SECONDS"`
}

func (c BackendConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" envconfig:"REDIS_ADDR"`
	Password string `mapstructure:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"db" envconfig:"REDIS_DB"`
}

type CacheConfig struct {
	ProfileTTLSeconds  int `mapstructure:"profile_ttl_seconds" envconfig:"CACHE_PROFILE_TTL_SECONDS"`
	ResolverTTLSeconds int `mapstructure:"resolver_ttl_seconds" envconfig:"CACHE_RESOLVER_TTL_SECONDS"`
}

func (c CacheConfig) ProfileTTL() time.Duration {
	if c.ProfileTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ProfileTTLSeconds) * time.Second
}

func (c CacheConfig) ResolverTTL() time.Duration {
	if c.ResolverTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.ResolverTTLSeconds) * time.Second
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" envconfig:"RATE_LIMIT_RPS"`
	Burst int     `mapstructure:"burst" envconfig:"RATE_LIMIT_BURST"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" envconfig:"LOG_PRETTY"`
}

// LoadConfig reads config.yaml and overlays environment variables on top.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Backend.BaseURL == "" {
		config.Backend.BaseURL = "http://localhost:8000"
	}
	if config.Auth.CookieName == "" {
		config.Auth.CookieName = "pl_session"
	}

	return &config, nil
}
