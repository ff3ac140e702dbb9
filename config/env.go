package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnvAndLogger reads envFile into the process environment before building
// Logger, so logger settings such as LOG_DEBUG may come from the file. Values
// already set in the process win. A missing file only logs a warning.
func LoadEnvAndLogger(envFile string) {
	envErr := godotenv.Load(envFile)
	InitLogger()
	if envErr != nil {
		Logger.Warn("No .env file loaded, using process environment", zap.String("file", envFile), zap.Error(envErr))
	}
}

// GetEnv returns the trimmed value of an environment variable, or "" when unset.
func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvOrDefault(key, fallback string) string {
	if value := GetEnv(key); value != "" {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		Logger.Warn("Invalid integer in environment, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Int("default", fallback),
		)
		return fallback
	}
	return value
}

// GetEnvDuration parses values such as "90s" or "15m".
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		Logger.Warn("Invalid duration in environment, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Duration("default", fallback),
		)
		return fallback
	}
	return value
}

func GetEnvBool(key string, fallback bool) bool {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
