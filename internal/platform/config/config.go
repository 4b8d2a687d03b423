// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	Redis         RedisConfig
	Lockout       LockoutConfig
}

// RedisConfig configures the optional Redis client. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LockoutConfig tunes the code-guess lockout.
type LockoutConfig struct {
	Threshold int
	Window    time.Duration
	LockFor   time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("STEEPLE_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("STEEPLE_DATABASE_URL"),
		JWTSigningKey: envOr("STEEPLE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("STEEPLE_REDIS_URL"),
			PoolSize:     envInt("STEEPLE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("STEEPLE_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Lockout: LockoutConfig{
			Threshold: envInt("STEEPLE_CODE_LOCKOUT_THRESHOLD", 15),
			Window:    10 * time.Minute,
			LockFor:   15 * time.Minute,
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
