package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all environment-driven settings. Secrets have no in-code
// defaults and must come from the environment or a .env file.
type Config struct {
	Env  string
	Port string

	MongoURI      string
	MongoDatabase string

	RabbitURI      string
	RabbitExchange string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	// AdminEmail is compared case-sensitively against authenticated emails
	// to grant the unlimited-coin admin account. Empty disables admin.
	AdminEmail string

	// DailyFreeCoins is the coin allotment granted by the daily reset.
	DailyFreeCoins int

	AllowOrigins []string
}

// Load reads configuration from the environment. Mongo URI and JWT secret
// are required; everything else has a sensible default.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("APP_ENV", "local"),
		Port:           getEnv("PORT", "8080"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "learning_service"),
		RabbitURI:      os.Getenv("RABBITMQ_URI"),
		RabbitExchange: getEnv("RABBITMQ_EXCHANGE", "learning.events"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         getEnvDuration("JWT_TTL", 24*time.Hour),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		DailyFreeCoins: getEnvInt("DAILY_FREE_COINS", 5),
		AllowOrigins:   getEnvList("ALLOW_ORIGINS", []string{"http://localhost:3000"}),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("config: MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}
	if cfg.DailyFreeCoins < 1 {
		return nil, fmt.Errorf("config: DAILY_FREE_COINS must be at least 1")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
