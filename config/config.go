// Package config provides application configuration management.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the production upstream scribe API.
const DefaultBaseURL = "https://registrar.api.heidihealth.com/api/v2/ml-scribe/open-api"

// Config holds all application configuration.
type Config struct {
	// Server configuration
	ServerPort       string
	APIToken         string
	CORSAllowOrigins []string
	LogLevel         string

	// Upstream API configuration
	BaseURL          string
	APIKey           string
	Email            string
	UserID           string
	UpstreamTimeout  time.Duration
	AskAITimeout     time.Duration
	TokenRefreshSkew time.Duration

	// Persistence configuration
	StatePath       string
	DataStoreDriver string
	DataStoreDSN    string
	SeedDemoData    bool
	SampleAudioPath string

	// Maintenance loop
	MaintenanceInterval time.Duration
	HistoryTTL          time.Duration

	// Redis / events configuration
	RedisAddr        string
	RedisUsername    string
	RedisPassword    string
	RedisDB          int
	RedisTLSEnabled  bool
	RedisTLSInsecure bool
	EventsChannel    string
}

// Load loads configuration from environment variables with defaults. A .env
// file in the working directory is read first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to read .env file: %v", err)
	}

	statePath := getEnv("STATE_PATH", "./state")
	dataStoreDriver := getEnv("DATASTORE_DRIVER", "sqlite")
	dataStoreDSN := getEnv("DATASTORE_DSN", "")
	if dataStoreDSN == "" && dataStoreDriver == "postgres" {
		dataStoreDSN = os.Getenv("POSTGRES_DSN")
	}
	if dataStoreDSN == "" {
		dataStoreDSN = filepath.Join(statePath, "scribe-bridge.db")
	}
	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		APIToken:            os.Getenv("API_TOKEN"),
		CORSAllowOrigins:    getEnvList("CORS_ALLOW_ORIGINS", []string{"*"}),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		BaseURL:             strings.TrimRight(getEnv("HEIDI_BASE_URL", DefaultBaseURL), "/"),
		APIKey:              os.Getenv("HEIDI_API_KEY"),
		Email:               os.Getenv("HEIDI_EMAIL"),
		UserID:              os.Getenv("HEIDI_USER_ID"),
		UpstreamTimeout:     getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		AskAITimeout:        getEnvDuration("ASK_AI_TIMEOUT", 60*time.Second),
		TokenRefreshSkew:    getEnvDuration("TOKEN_REFRESH_SKEW", time.Minute),
		StatePath:           statePath,
		DataStoreDriver:     dataStoreDriver,
		DataStoreDSN:        dataStoreDSN,
		SeedDemoData:        getEnvBool("SEED_DEMO_DATA", true),
		SampleAudioPath:     getEnv("SAMPLE_AUDIO_PATH", "static/Going_Down_Stairs.mp3"),
		MaintenanceInterval: getEnvDuration("MAINTENANCE_INTERVAL", 5*time.Minute),
		HistoryTTL:          getEnvDuration("HISTORY_TTL", 30*24*time.Hour),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisUsername:       getEnv("REDIS_USERNAME", ""),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisTLSEnabled:     getEnvBool("REDIS_TLS_ENABLED", false),
		RedisTLSInsecure:    getEnvBool("REDIS_TLS_INSECURE_SKIP_VERIFY", false),
		EventsChannel:       getEnv("EVENTS_CHANNEL", "scribe-bridge-events"),
	}
}

// CredentialStatus reports which upstream credentials are present without
// exposing their values.
func (c *Config) CredentialStatus() map[string]bool {
	return map[string]bool{
		"HEIDI_API_KEY": c.APIKey != "",
		"HEIDI_EMAIL":   c.Email != "",
		"HEIDI_USER_ID": c.UserID != "",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s: %s, using default %s", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s: %s, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "y":
			return true
		case "0", "false", "no", "n":
			return false
		default:
			log.Printf("Invalid bool for %s: %s, using default %t", key, value, defaultValue)
		}
	}
	return defaultValue
}
