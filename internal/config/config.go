package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MemoryDatabase as DATABASE_URL keeps all records in process memory.
const MemoryDatabase = "memory"

// ErrTokenRequired is returned by RequireToken when TELEGRAM_TOKEN is unset.
var ErrTokenRequired = errors.New("TELEGRAM_TOKEN is required")

// Config keeps runtime settings for the planner.
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	ReportInterval  time.Duration
	StreakCheckTime string
	Location        *time.Location
	// StorageQuota is in bytes.
	StorageQuota int64
	SeedSamples  bool
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Printf("[info] loaded settings from .env")
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		TelegramToken:   env("TELEGRAM_TOKEN"),
		DatabaseURL:     env("DATABASE_URL"),
		ReportInterval:  parseInterval(env("REPORT_INTERVAL_HOURS")),
		StreakCheckTime: env("STREAK_CHECK_TIME"),
		Location:        time.Local,
		StorageQuota:    5120 * 1024,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "plannr.db"
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.StreakCheckTime == "" {
		cfg.StreakCheckTime = "00:01"
	}
	if !validClock(cfg.StreakCheckTime) {
		return cfg, fmt.Errorf("STREAK_CHECK_TIME %q: expected HH:MM", cfg.StreakCheckTime)
	}

	if raw := env("TIMEZONE"); raw != "" {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	if raw := env("STORAGE_QUOTA_KB"); raw != "" {
		kb, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || kb <= 0 {
			return cfg, fmt.Errorf("STORAGE_QUOTA_KB %q: expected a positive number", raw)
		}
		cfg.StorageQuota = kb * 1024
	}

	if raw := env("SEED_SAMPLE_TASKS"); raw != "" {
		seed, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("SEED_SAMPLE_TASKS: %w", err)
		}
		cfg.SeedSamples = seed
	}

	return cfg, nil
}

// RequireToken fails when the bot cannot be started.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return ErrTokenRequired
	}
	return nil
}

// InMemory reports whether records live only in process memory.
func (c Config) InMemory() bool {
	return strings.EqualFold(c.DatabaseURL, MemoryDatabase)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func validClock(raw string) bool {
	_, err := time.Parse("15:04", raw)
	return err == nil
}
