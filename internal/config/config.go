package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Supabase auth backend (optional; standalone mode when unset)
	Supabase SupabaseConfig

	// OpenAI chat assistant
	OpenAI OpenAIConfig

	// Agromonitoring satellite/weather API
	Agro AgroConfig

	// Local database
	Database DatabaseConfig

	// Redis (asynq job queue)
	Redis RedisConfig

	// HTTP server
	Server ServerConfig

	// Logging
	Logging LoggingConfig
}

// SupabaseConfig holds the embedded auth provider configuration. URL and
// AnonKey must both be set for embedded mode; absence of either is a valid,
// supported state (standalone mode), not an error.
type SupabaseConfig struct {
	URL          string
	AnonKey      string
	RefreshToken string // optional persisted refresh token for headless session restore
	RedirectURL  string // where OAuth flows land after the provider redirect
	SeedAccounts string // optional YAML file overriding the embedded standalone seed table
}

// OpenAIConfig holds the chat completion client configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// AgroConfig holds the Agromonitoring API configuration
type AgroConfig struct {
	APIKey  string
	BaseURL string
}

// DatabaseConfig holds local database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port       string
	CORSOrigin string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return &Config{
		Supabase: SupabaseConfig{
			URL:          os.Getenv("SUPABASE_URL"),
			AnonKey:      os.Getenv("SUPABASE_ANON_KEY"),
			RefreshToken: os.Getenv("SUPABASE_REFRESH_TOKEN"),
			RedirectURL:  getEnv("SUPABASE_REDIRECT_URL", "http://localhost:5173"),
			SeedAccounts: os.Getenv("SEED_ACCOUNTS_FILE"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Agro: AgroConfig{
			APIKey:  os.Getenv("AGROMONITORING_API_KEY"),
			BaseURL: getEnv("AGROMONITORING_BASE_URL", "https://api.agromonitoring.com/agro/1.0"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "krishisevak.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Server: ServerConfig{
			Port:       getEnv("PORT", "8080"),
			CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// IsSupabaseConfigured reports whether the embedded auth backend can be used
func (c *Config) IsSupabaseConfigured() bool {
	return c.Supabase.URL != "" && c.Supabase.AnonKey != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
