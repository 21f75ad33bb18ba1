package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the service. Everything comes from
// the environment, with a .env file honored when present.
type Config struct {
	Port           string
	GeminiModel    string
	LogLevel       string
	QueueSize      int
	SessionTTL     time.Duration
	MaxUploadBytes int64
}

// Load reads the .env file (if any) and the environment, falling back to
// defaults suitable for local development.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using environment variables: %v", err)
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		QueueSize:      getEnvInt("QUEUE_SIZE", 100),
		SessionTTL:     getEnvDuration("SESSION_TTL", time.Hour),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s, using default %d: %v", key, defaultVal, err)
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s, using default %s: %v", key, defaultVal, err)
		return defaultVal
	}
	return d
}
