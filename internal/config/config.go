package config

import (
	"os"
)

// Config holds all application configuration
type Config struct {
	Port     string
	MongoURI string

	// Generative backend (OpenAI-compatible)
	GenerationBaseURL string
	GenerationAPIKey  string
	CopyModel         string
	ImageModel        string
	ImageSize         string

	// Outbound automation trigger (empty disables it)
	AutomationWebhookURL string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3001"),
		MongoURI: getEnv("MONGODB_URI", ""),

		GenerationBaseURL: getEnv("GENERATION_BASE_URL", "https://api.openai.com/v1"),
		GenerationAPIKey:  getEnv("GENERATION_API_KEY", ""),
		CopyModel:         getEnv("COPY_MODEL", "gpt-4o-mini"),
		ImageModel:        getEnv("IMAGE_MODEL", "dall-e-3"),
		ImageSize:         getEnv("IMAGE_SIZE", "1024x1024"),

		AutomationWebhookURL: getEnv("AUTOMATION_WEBHOOK_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
