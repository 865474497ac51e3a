package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Env string

	API   APIConfig
	Cache CacheConfig
	Redis RedisConfig
	Log   LogConfig
}

// APIConfig locates the study platform backend. SessionCookie carries the
// session credential in "name=value" form; responses may rotate it via
// Set-Cookie, which the cookie jar picks up.
type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	SessionCookie string
}

// CacheConfig tunes per-resource freshness windows for the query cache.
type CacheConfig struct {
	Store            string
	ListStale        time.Duration
	DetailStale      time.Duration
	ApplicationStale time.Duration
	StatusStale      time.Duration
	EvictAfter       time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.API = APIConfig{
		BaseURL:       v.GetString("API_BASE_URL"),
		Timeout:       parseDuration(v.GetString("API_TIMEOUT"), 10*time.Second),
		SessionCookie: v.GetString("API_SESSION_COOKIE"),
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	cfg.Cache = CacheConfig{
		Store:            v.GetString("CACHE_STORE"),
		ListStale:        parseDuration(v.GetString("CACHE_LIST_STALE"), time.Minute),
		DetailStale:      parseDuration(v.GetString("CACHE_DETAIL_STALE"), time.Minute),
		ApplicationStale: parseDuration(v.GetString("CACHE_APPLICATION_STALE"), 5*time.Minute),
		StatusStale:      parseDuration(v.GetString("CACHE_STATUS_STALE"), 5*time.Minute),
		EvictAfter:       parseDuration(v.GetString("CACHE_EVICT_AFTER"), 10*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("API_SESSION_COOKIE", "")

	v.SetDefault("CACHE_STORE", StoreMemory)
	v.SetDefault("CACHE_LIST_STALE", "60s")
	v.SetDefault("CACHE_DETAIL_STALE", "60s")
	v.SetDefault("CACHE_APPLICATION_STALE", "5m")
	v.SetDefault("CACHE_STATUS_STALE", "5m")
	v.SetDefault("CACHE_EVICT_AFTER", "10m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
