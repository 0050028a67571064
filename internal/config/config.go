package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageBadger   = "badger"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	Storage     string
	DatabaseURL string
	BadgerPath  string // при пустом пути badger работает в памяти

	NATSURL   string
	JWTSecret string

	FeedWindow           int
	ThreadInsertAttempts int

	RateLimitRPS   float64
	RateLimitBurst int
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found")
	}
}

// Load reads the configuration from the environment. Call LoadEnv first to
// pick up a .env file.
func Load() (Config, error) {
	cfg := Config{
		AppEnv:      envString("APP_ENV", "development"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		HTTPAddr:    envString("HTTP_ADDR", ":8080"),
		Storage:     strings.ToLower(envString("STORAGE", StorageMemory)),
		DatabaseURL: envString("DATABASE_URL", ""),
		BadgerPath:  envString("BADGER_PATH", ""),
		NATSURL:     envString("NATS_URL", ""),
		JWTSecret:   envString("JWT_SECRET", ""),
	}

	var err error
	if cfg.FeedWindow, err = envInt("FEED_WINDOW", 100); err != nil {
		return Config{}, err
	}
	if cfg.ThreadInsertAttempts, err = envInt("THREAD_INSERT_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", 10); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate checks the combination of settings. It is called by Load and again
// after command line flags have overridden fields.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageBadger:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.FeedWindow <= 0 {
		return errors.New("FEED_WINDOW must be positive")
	}
	if c.ThreadInsertAttempts <= 0 {
		return errors.New("THREAD_INSERT_ATTEMPTS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return f, nil
}
