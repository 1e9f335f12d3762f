// Package masatwitter reads account timelines through the Masa Protocol Twitter search API.
package masatwitter

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Default configuration values
const (
	// DefaultAPIEndpoint is the default URL for the Masa Twitter API endpoint
	DefaultAPIEndpoint = "http://localhost:8080/api/v1/data/twitter/tweets/recent"
	// DefaultRequestTimeout is the default timeout in seconds for API requests
	DefaultRequestTimeout = 120
	// DefaultTweetsPerRequest is the default number of tweets to fetch per request
	DefaultTweetsPerRequest = 50
)

// Config holds the Masa Twitter API configuration settings.
// Environment variables:
//   - MASA_TWITTER_API_ENDPOINT: API endpoint URL
//   - MASA_TWITTER_REQUEST_TIMEOUT: Request timeout in seconds (default: 120)
//   - MASA_TWITTER_TWEETS_PER_REQUEST: Number of tweets per request (default: 50)
type Config struct {
	APIEndpoint      string
	RequestTimeout   time.Duration
	TweetsPerRequest int
	Logger           *logrus.Logger
}

// NewConfig creates a new Config from environment variables, falling back to defaults.
func NewConfig(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		APIEndpoint:      getEnvOrDefault("MASA_TWITTER_API_ENDPOINT", DefaultAPIEndpoint),
		RequestTimeout:   time.Duration(getEnvInt("MASA_TWITTER_REQUEST_TIMEOUT", DefaultRequestTimeout)) * time.Second,
		TweetsPerRequest: getEnvInt("MASA_TWITTER_TWEETS_PER_REQUEST", DefaultTweetsPerRequest),
		Logger:           logger,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.Logger.WithFields(logrus.Fields{
		"api_endpoint":       config.APIEndpoint,
		"request_timeout":    config.RequestTimeout.String(),
		"tweets_per_request": config.TweetsPerRequest,
	}).Debug("Masa Twitter config initialized")

	return config, nil
}

// Validate checks if the configuration is valid according to the following rules:
//   - APIEndpoint must not be empty
//   - Logger must be initialized
//   - RequestTimeout must be at least 1 second
//   - TweetsPerRequest must be positive
func (c *Config) Validate() error {
	if c.APIEndpoint == "" {
		return fmt.Errorf("masatwitter: API endpoint is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("masatwitter: logger is required")
	}
	if c.RequestTimeout < 1*time.Second {
		return fmt.Errorf("masatwitter: request timeout must be at least 1 second, got %v", c.RequestTimeout)
	}
	if c.TweetsPerRequest < 1 {
		return fmt.Errorf("masatwitter: tweets per request must be positive, got %d", c.TweetsPerRequest)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}
