package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration (networked message store)
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Inference gateway configuration
	Inference struct {
		// Provider selects the gateway implementation: "openai" talks an
		// OpenAI-compatible API, anything else uses the generic HTTP gateway.
		Provider string
		BaseURL  string
		// APIKeySecret is the secret name resolved through the secrets
		// manager; falls back to the INFERENCE_API_KEY environment variable.
		APIKeySecret string
		MaxTokens    int
		Timeout      time.Duration
		// ServerTurn enables full server-side turns on POST /api/chat
		// (persist user turn, call the gateway, persist the assistant turn).
		// When disabled the endpoint only stores the user turn and the
		// client drives inference, writing back via POST /api/ai-response.
		ServerTurn bool
	}

	// Redis cache settings for the session message cache
	Redis struct {
		Enabled bool
		URL     string
		TTL     time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		TrustedProxies []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Local-variant storage settings
	Local struct {
		// DataDir holds the per-session message files and the model
		// preference file for the file-backed store.
		DataDir string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
		instance.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+instance.Server.Port)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "chat-console")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Inference config
		instance.Inference.Provider = getEnvString("INFERENCE_PROVIDER", "openai")
		instance.Inference.BaseURL = getEnvString("INFERENCE_BASE_URL", "")
		instance.Inference.APIKeySecret = getEnvString("INFERENCE_API_KEY_SECRET", "inference-api-key")
		instance.Inference.MaxTokens = getEnvInt("INFERENCE_MAX_TOKENS", 1000)
		instance.Inference.Timeout = getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second)
		instance.Inference.ServerTurn = getEnvBool("INFERENCE_SERVER_TURN", false)

		// Redis config
		instance.Redis.Enabled = getEnvBool("REDIS_ENABLED", false)
		instance.Redis.URL = getEnvString("REDIS_URL", "localhost:6379")
		instance.Redis.TTL = getEnvDuration("REDIS_TTL", 5*time.Minute)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
		instance.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Local-variant storage
		instance.Local.DataDir = getEnvString("CHAT_DATA_DIR", ".chat-console")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
