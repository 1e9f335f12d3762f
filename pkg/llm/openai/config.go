package openai

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Logger  *logrus.Logger
	Model   string

	// Scoring is deterministic-leaning, drafting is looser
	ScoringTemperature float64
	DraftTemperature   float64
	MaxTokens          int
}

// NewOpenAIConfig creates a new OpenAIConfig with OpenAI-specific values from environment variables
func NewOpenAIConfig(logger *logrus.Logger) (*OpenAIConfig, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist in production
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &OpenAIConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
		Logger:  logger,
	}
	if v, err := strconv.Atoi(os.Getenv("OPENAI_MAX_TOKENS")); err == nil {
		config.MaxTokens = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	// Set default values if not provided
	if c.ScoringTemperature == 0 {
		c.ScoringTemperature = 0.2
	}
	if c.DraftTemperature == 0 {
		c.DraftTemperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	return nil
}
