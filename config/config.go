// Package config loads environment-based configuration. A config.env
// file in the user's config directory seeds the environment; explicit
// environment variables win.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "ai-ndresells"
	EnvFileName = "config.env"
)

// LoadEnvFile loads environment variables from the config file in the
// user's config directory. Errors are ignored since the file may not
// exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Config collects everything the analysis pipeline needs from the
// environment. Only GeminiAPIKey and CredentialKey are strictly
// required; anything else missing degrades a capability.
type Config struct {
	// Identification providers.
	GeminiAPIKey string
	SerpAPIKey   string
	BingAPIKey   string

	// Pricing sources.
	EbayClientID     string
	EbayClientSecret string
	StockxAPIKey     string

	// Object store for publishing uploads at public URLs.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Persistence.
	DBPath        string
	CredentialKey string

	// Tuning.
	CacheTTL      time.Duration
	LiveCacheTTL  time.Duration
	SourceTimeout time.Duration
}

// FromEnv reads the configuration from the environment.
func FromEnv() Config {
	return Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		SerpAPIKey:   os.Getenv("SERPAPI_KEY"),
		BingAPIKey:   os.Getenv("BING_API_KEY"),

		EbayClientID:     os.Getenv("EBAY_CLIENT_ID"),
		EbayClientSecret: os.Getenv("EBAY_CLIENT_SECRET"),
		StockxAPIKey:     os.Getenv("STOCKX_API_KEY"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    envOr("MINIO_BUCKET", "analysis-images"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		DBPath:        envOr("ANALYSIS_DB_PATH", "analysis.db"),
		CredentialKey: os.Getenv("CREDENTIAL_KEY"),

		CacheTTL:      durationOr("CACHE_TTL", time.Hour),
		LiveCacheTTL:  durationOr("LIVE_CACHE_TTL", 5*time.Minute),
		SourceTimeout: durationOr("SOURCE_TIMEOUT", 10*time.Second),
	}
}

// Missing returns the names of required variables that are not set.
func (c Config) Missing() []string {
	var missing []string
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.CredentialKey == "" {
		missing = append(missing, "CREDENTIAL_KEY")
	}
	return missing
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
