package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Storage StorageConfig `json:"storage"`
	Auth    AuthConfig    `json:"auth"`
	Clerk   ClerkConfig   `json:"clerk"`
	AI      AIConfig      `json:"ai"`
	Logging LoggingConfig `json:"logging"`
	Mocks   MockConfig    `json:"mocks"`
}

type StorageConfig struct {
	Driver string `json:"driver"` // file, memory, sqlite, redis or azure
	Dir    string `json:"dir"`
	// SQLitePath defaults to Dir/chefai.db.
	SQLitePath     string `json:"sqlite_path"`
	RedisURL       string `json:"redis_url"`
	RedisPrefix    string `json:"redis_prefix"`
	AzureAccount   string `json:"azure_account"`
	AzureKey       string `json:"-"`
	AzureContainer string `json:"azure_container"`
	// AgeIdentity enables encryption at rest when set (AGE-SECRET-KEY-1...).
	AgeIdentity string `json:"-"`
}

type AuthConfig struct {
	Secret       string `json:"-"`
	SessionDays  int    `json:"session_days"`
	CookieSecure bool   `json:"cookie_secure"`
}

type ClerkConfig struct {
	SecretKey string `json:"-"`
}

func (c ClerkConfig) Enabled() bool {
	return c.SecretKey != ""
}

type AIConfig struct {
	APIKey string `json:"-"`
	Model  string `json:"model"`
}

type LoggingConfig struct {
	Level          string `json:"level"`
	BlobAccount    string `json:"blob_account"`
	BlobKey        string `json:"-"`
	BlobContainer  string `json:"blob_container"`
	OTLPEnabled    bool   `json:"otlp_enabled"`
	OTLPServiceTag string `json:"otlp_service"`
}

type MockConfig struct {
	Enable bool   `json:"enable"`
	Email  string `json:"email"`
}

const developmentSecret = "development-secret-key-change-in-production"

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	sessionDays, err := getEnvInt("SESSION_DAYS", 30)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Storage: StorageConfig{
			Driver:         strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", "file")),
			Dir:            getEnvOrDefault("STORAGE_DIR", "data"),
			SQLitePath:     os.Getenv("SQLITE_PATH"),
			RedisURL:       os.Getenv("REDIS_URL"),
			RedisPrefix:    getEnvOrDefault("REDIS_PREFIX", "chefai:"),
			AzureAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AzureKey:       os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			AzureContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "recipes"),
			AgeIdentity:    os.Getenv("STORAGE_AGE_IDENTITY"),
		},
		Auth: AuthConfig{
			Secret:       sessionSecret(),
			SessionDays:  sessionDays,
			CookieSecure: os.Getenv("COOKIE_SECURE") == "1",
		},
		Clerk: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},
		AI: AIConfig{
			APIKey: os.Getenv("GOOGLE_API_KEY"),
			Model:  getEnvOrDefault("AI_MODEL", "gemini-2.5-flash"),
		},
		Logging: LoggingConfig{
			Level:          getEnvOrDefault("LOG_LEVEL", "info"),
			BlobAccount:    os.Getenv("LOG_BLOB_ACCOUNT_NAME"),
			BlobKey:        os.Getenv("LOG_BLOB_ACCOUNT_KEY"),
			BlobContainer:  getEnvOrDefault("LOG_BLOB_CONTAINER", "logs"),
			OTLPEnabled:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
			OTLPServiceTag: getEnvOrDefault("OTEL_SERVICE_NAME", "chefai"),
		},
		Mocks: MockConfig{
			Enable: os.Getenv("MOCKS") == "1",
			Email:  os.Getenv("MOCK_EMAIL"),
		},
	}

	return config, nil
}

// sessionSecret falls back to a key derived from GOOGLE_API_KEY so a single
// secret is enough for small deployments.
func sessionSecret() string {
	if secret := os.Getenv("NEXTAUTH_SECRET"); secret != "" {
		return secret
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		return secret
	}
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		return deriveSecret(apiKey)
	}
	return developmentSecret
}

func deriveSecret(apiKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(apiKey))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
