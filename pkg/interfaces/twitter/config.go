package twitter

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type TwitterConfig struct {
	// API Authentication
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
	BearerToken       string

	// API Endpoints
	BaseURL        string
	UserEndpoint   string
	SearchEndpoint string

	// Rate Limiting
	RateLimit      int
	RateWindow     int
	RateBurst      int
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Pagination
	PageSize int
	MaxPages int

	// API Fields Configuration (based on Twitter v2 data dictionary)
	TweetFields     []string
	ExpansionFields []string
	MediaFields     []string

	// General Config
	Logger *logrus.Logger
}

// DefaultTwitterConfig returns a config with every non-credential field populated.
func DefaultTwitterConfig(logger *logrus.Logger) *TwitterConfig {
	return &TwitterConfig{
		BaseURL:        "https://api.twitter.com/2",
		UserEndpoint:   "/users",
		SearchEndpoint: "/tweets/search/recent",

		RateLimit:      180,
		RateWindow:     15,
		RateBurst:      5,
		RetryAttempts:  3,
		RetryBaseDelay: time.Second,
		RetryMaxDelay:  30 * time.Second,

		PageSize: 100,
		MaxPages: 3,

		TweetFields: []string{
			"id",
			"text",
			"created_at",
			"author_id",
			"conversation_id",
			"in_reply_to_user_id",
			"referenced_tweets",
			"attachments",
			"public_metrics",
		},
		ExpansionFields: []string{
			"author_id",
			"attachments.media_keys",
		},
		MediaFields: []string{"url", "preview_image_url", "type"},

		Logger: logger,
	}
}

func NewTwitterConfig(logger *logrus.Logger) (*TwitterConfig, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultTwitterConfig(logger)

	config.ConsumerKey = os.Getenv("TWITTER_CONSUMER_KEY")
	config.ConsumerSecret = os.Getenv("TWITTER_CONSUMER_SECRET")
	config.AccessToken = os.Getenv("TWITTER_ACCESS_TOKEN")
	config.AccessTokenSecret = os.Getenv("TWITTER_ACCESS_TOKEN_SECRET")
	config.BearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	config.BaseURL = getEnvOrDefault("TWITTER_API_BASE_URL", config.BaseURL)

	config.RateLimit = getEnvInt("TWITTER_RATE_LIMIT", config.RateLimit)
	config.RateWindow = getEnvInt("TWITTER_RATE_WINDOW", config.RateWindow)
	config.RateBurst = getEnvInt("TWITTER_RATE_BURST", config.RateBurst)
	config.RetryAttempts = getEnvInt("TWITTER_RETRY_ATTEMPTS", config.RetryAttempts)
	config.MaxPages = getEnvInt("TWITTER_MAX_PAGES", config.MaxPages)

	config.Logger.WithFields(logrus.Fields{
		"consumer_key_exists": config.ConsumerKey != "",
		"bearer_token_exists": config.BearerToken != "",
		"base_url":            config.BaseURL,
		"rate_limit":          config.RateLimit,
	}).Debug("Twitter config initialized")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *TwitterConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	if !c.HasReadAccess() {
		c.Logger.WithFields(logrus.Fields{
			"consumer_key_exists":        c.ConsumerKey != "",
			"consumer_secret_exists":     c.ConsumerSecret != "",
			"access_token_exists":        c.AccessToken != "",
			"access_token_secret_exists": c.AccessTokenSecret != "",
		}).Debug("OAuth credentials validation")
		return fmt.Errorf("either OAuth 1.0a credentials or Bearer token must be provided")
	}

	if c.RateLimit < 1 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateWindow < 1 {
		return fmt.Errorf("rate window must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		c.RetryMaxDelay = c.RetryBaseDelay
	}
	if c.PageSize < 5 || c.PageSize > 100 {
		c.PageSize = 100
	}
	if c.MaxPages < 1 {
		c.MaxPages = 1
	}

	if c.BaseURL == "" {
		c.BaseURL = "https://api.twitter.com/2"
	}
	if c.UserEndpoint == "" {
		c.UserEndpoint = "/users"
	}
	if c.SearchEndpoint == "" {
		c.SearchEndpoint = "/tweets/search/recent"
	}

	return nil
}

// Helper function to get environment variable with default value
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

// HasWriteAccess returns true if OAuth 1.0a credentials are configured
func (c *TwitterConfig) HasWriteAccess() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.AccessToken != "" && c.AccessTokenSecret != ""
}

// HasReadAccess returns true if either OAuth 1.0a or Bearer token is configured
func (c *TwitterConfig) HasReadAccess() bool {
	return c.HasWriteAccess() || c.BearerToken != ""
}
