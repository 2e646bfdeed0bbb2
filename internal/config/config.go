// internal/config/config.go
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the console configuration, loaded once at startup.
type Config struct {
	Port           string
	EngineBaseURL  string
	EngineAPIKey   string
	Jurisdiction   string
	LogDir         string
	DebugMode      bool
	RevealInterval time.Duration
}

// Load reads configuration from the environment. A .env file is
// loaded first when present (optional).
func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		EngineBaseURL:  getEnv("ENGINE_BASE_URL", "http://127.0.0.1:8000"),
		EngineAPIKey:   getEnv("ENGINE_API_KEY", ""),
		Jurisdiction:   getEnv("JURISDICTION", "IN"),
		LogDir:         getEnvPath("LOG_DIR", "logs"),
		DebugMode:      getEnvBool("DEBUG_MODE", true),
		RevealInterval: getEnvDuration("REVEAL_INTERVAL", 25*time.Millisecond),
	}

	if config.EngineAPIKey == "" {
		// Warn only: the console still starts, engine calls will fail authorization
		log.Println("warning: ENGINE_API_KEY is not set, requests to the analysis engine will be rejected")
	}

	return config, nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath returns a directory path from the environment, creating it when missing.
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Printf("warning: failed to create directory %s: %v", path, err)
		}
	}

	return path
}

// getEnvBool reads a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration reads a duration environment variable (e.g. "25ms").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("warning: invalid duration for %s: %v, using default", key, err)
		return defaultValue
	}
	return d
}
