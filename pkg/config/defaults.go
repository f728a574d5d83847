// Package config provides centralized default values for spotlight-go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		log.Println("Loading configuration overrides from .env file...")
		// Load never overrides variables that are already set.
		if err := godotenv.Load(); err != nil {
			log.Printf("Ignoring .env file: %v", err)
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvSecret(key string) string {
	if val := os.Getenv(key); val != "" {
		log.Printf("Config override: %s=<redacted>", key)
		return val
	}
	return ""
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%g (default: %g)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	log.Printf("Config override: %s=%s", key, strings.Join(out, ","))
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	GinMode            string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	CORSOrigins        []string

	// Editor Sessions
	MaxEditorSessions      int
	MaxSpotlightsPerScene  int
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration
	SessionCleanupVerbose  bool

	// Security
	JWTSecret       string
	SessionTokenTTL time.Duration
	SysopToken      string

	// Logging
	LogLevel     string
	LogJSON      bool
	LogToFile    bool
	LogDirectory string

	// Previews
	PreviewMaxWidth    int
	PreviewWebPQuality float64

	// Websockets
	WSWriteTimeout time.Duration
	WSPingInterval time.Duration
)

func init() {
	Load()
}

// Load reads every setting from the environment, after applying .env
// overrides once per process.
func Load() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	GinMode = getEnvString("GIN_MODE", "release")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	CORSOrigins = getEnvList("CORS_ORIGINS", []string{"http://localhost:4321", "http://localhost:5173"})

	// Editor Sessions
	MaxEditorSessions = getEnvInt("MAX_EDITOR_SESSIONS", 1000)
	MaxSpotlightsPerScene = getEnvInt("MAX_SPOTLIGHTS_PER_SCENE", 24)
	SessionTTL = time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute
	SessionCleanupInterval = time.Duration(getEnvInt("SESSION_CLEANUP_INTERVAL_MINUTES", 5)) * time.Minute
	SessionCleanupVerbose = getEnvBool("SESSION_CLEANUP_VERBOSE", false)

	// Security
	JWTSecret = getEnvSecret("JWT_SECRET")
	SessionTokenTTL = time.Duration(getEnvInt("SESSION_TOKEN_TTL_HOURS", 24)) * time.Hour
	SysopToken = getEnvSecret("SYSOP_TOKEN")

	// Logging
	LogLevel = getEnvString("LOG_LEVEL", "INFO")
	LogJSON = getEnvBool("LOG_JSON", true)
	LogToFile = getEnvBool("LOG_TO_FILE", false)
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")

	// Previews
	PreviewMaxWidth = getEnvInt("PREVIEW_MAX_WIDTH", 1600)
	PreviewWebPQuality = getEnvFloat("PREVIEW_WEBP_QUALITY", 85)

	// Websockets
	WSWriteTimeout = getEnvDuration("WS_WRITE_TIMEOUT", 10*time.Second)
	WSPingInterval = getEnvDuration("WS_PING_INTERVAL", 30*time.Second)
}
