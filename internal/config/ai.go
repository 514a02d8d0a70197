package config

import (
	"os"
	"time"
)

// AIModels defines which Gemini models to use for each interview task
type AIModels struct {
	// Question is used once per turn while the candidate waits
	Question string `mapstructure:"question" json:"question"`

	// Scoring runs once at the end of the interview (quality over speed)
	Scoring string `mapstructure:"scoring" json:"scoring"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey    string   `mapstructure:"api_key" json:"-"` // Never serialize
	BaseURL   string   `mapstructure:"base_url" json:"baseUrl"`
	Models    AIModels `mapstructure:"models" json:"models"`
	TimeoutMS int      `mapstructure:"timeout_ms" json:"timeoutMs"`
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}

// Timeout returns the HTTP client timeout
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ClassifierConfig configures the hosted impression classifier
type ClassifierConfig struct {
	APIKey     string `mapstructure:"api_key" json:"-"`
	Endpoint   string `mapstructure:"endpoint" json:"endpoint"`
	Confidence int    `mapstructure:"confidence" json:"confidence"` // minimum confidence percent sent to the model
	TimeoutMS  int    `mapstructure:"timeout_ms" json:"timeoutMs"`
}

// IsEnabled returns false for an empty or placeholder key, which selects the simulated classifier
func (c *ClassifierConfig) IsEnabled() bool {
	switch c.APIKey {
	case "", "demo", "YOUR_API_KEY":
		return false
	}
	return true
}

// Timeout returns the HTTP client timeout
func (c *ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// applyLegacyEnv fills secrets from the unprefixed variables older deployments use
func (c *Config) applyLegacyEnv() {
	if c.AI.APIKey == "" {
		c.AI.APIKey = getEnvOrDefault("GEMINI_API_KEY", "")
	}
	if c.Classifier.APIKey == "" {
		c.Classifier.APIKey = getEnvOrDefault("ROBOFLOW_API_KEY", "")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = getEnvOrDefault("JWT_SECRET", "")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
