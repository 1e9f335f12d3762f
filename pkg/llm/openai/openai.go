package openai

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type Client struct {
	logger *logrus.Logger
	llm    llms.Model
	config *OpenAIConfig
}

func NewClient(config *OpenAIConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI: %w", err)
	}

	config.Logger.WithFields(logrus.Fields{
		"model":    config.Model,
		"base_url": config.BaseURL,
	}).Debug("OpenAI client initialized")

	return &Client{
		logger: config.Logger,
		llm:    llm,
		config: config,
	}, nil
}

// GetLLM returns the langchaingo model shared by the scorer and the draft generator.
func (c *Client) GetLLM() llms.Model {
	return c.llm
}

func (c *Client) Config() *OpenAIConfig {
	return c.config
}
