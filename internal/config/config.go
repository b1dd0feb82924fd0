package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CODECRAFT_"

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides file settings with CODECRAFT_* environment variables
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt("PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv("LOG_LEVEL", cfg.Daemon.LogLevel)
	cfg.Daemon.RateLimit = getEnvInt("RATE_LIMIT", cfg.Daemon.RateLimit)

	cfg.Piston.BaseURL = getEnv("PISTON_URL", cfg.Piston.BaseURL)
	cfg.Piston.TimeoutSeconds = getEnvInt("PISTON_TIMEOUT", cfg.Piston.TimeoutSeconds)
	cfg.Piston.Resilience.Retry = getEnvBool("PISTON_RETRY", cfg.Piston.Resilience.Retry)
	cfg.Piston.Resilience.MaxConcurrent = getEnvInt("PISTON_MAX_CONCURRENT", cfg.Piston.Resilience.MaxConcurrent)
	cfg.Piston.Resilience.RatePerSecond = getEnvInt("PISTON_RATE", cfg.Piston.Resilience.RatePerSecond)

	cfg.Runner.CaseDelayMS = getEnvInt("CASE_DELAY_MS", cfg.Runner.CaseDelayMS)
	cfg.Content.Path = getEnv("CONTENT_PATH", cfg.Content.Path)

	cfg.Queue.Enabled = getEnvBool("QUEUE_ENABLED", cfg.Queue.Enabled)
	cfg.Queue.URL = getEnv("RABBITMQ_URL", cfg.Queue.URL)
	cfg.Queue.Workers = getEnvInt("QUEUE_WORKERS", cfg.Queue.Workers)

	cfg.Sandbox.Image = getEnv("SANDBOX_IMAGE", cfg.Sandbox.Image)
	cfg.Sandbox.Port = getEnvInt("SANDBOX_PORT", cfg.Sandbox.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
