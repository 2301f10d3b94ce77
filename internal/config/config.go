package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
)

// DefaultDatabase is the database the session collections live in.
const DefaultDatabase = "link_share"

// ErrMissingMongoURI is returned when MONGODB_URI is unset and the memory store was not requested.
var ErrMissingMongoURI = errors.New("config: MONGODB_URI is required")

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	BasicAuth BasicAuthConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	ConnectAttempts int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	AccessSecret    string
	RefreshSecret   string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type BasicAuthConfig struct {
	Username string
	Password string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and an optional .env file.
// A missing MONGODB_URI is reported by Validate, not here, so `--store=memory` can run without it.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		logger.Debugf("no .env file loaded (%v); using process environment", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30)
	v.SetDefault("MONGODB_DATABASE", DefaultDatabase)
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DATABASE", 0)
	v.SetDefault("JWT_ISSUER", "link-share")
	// minutes; 12h access and 7d refresh
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 720)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:             v.GetString("MONGODB_URI"),
			Database:        v.GetString("MONGODB_DATABASE"),
			Timeout:         time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ConnectAttempts: v.GetInt("MONGODB_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DATABASE"),
		},
		JWT: JWTConfig{
			AccessSecret:    v.GetString("JWT_KEY_ACCESS_TOKEN"),
			RefreshSecret:   v.GetString("JWT_KEY_REFRESH_TOKEN"),
			Issuer:          v.GetString("JWT_ISSUER"),
			AccessTokenTTL:  time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		BasicAuth: BasicAuthConfig{
			Username: v.GetString("BASICAUTH_USERNAME"),
			Password: v.GetString("BASICAUTH_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		logger.Warn("JWT_KEY_ACCESS_TOKEN / JWT_KEY_REFRESH_TOKEN not set; serve will refuse to start")
	}
	return cfg, nil
}

// Validate checks the settings a Mongo-backed run needs.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return ErrMissingMongoURI
	}
	if c.MongoDB.Database == "" {
		return errors.New("config: MONGODB_DATABASE must not be empty")
	}
	if c.MongoDB.ConnectAttempts < 1 {
		c.MongoDB.ConnectAttempts = 1
	}
	return nil
}
