package masatwitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

// Client handles Masa Twitter API searches.
type Client struct {
	config *Config
	client *http.Client
	logger *logrus.Logger
	retry  retrypolicy.RetryPolicy[[]Tweet]
}

// SearchRequest represents the search query parameters sent to the API.
type SearchRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// NewClient creates a new Masa Twitter API client. Rate limits and connection
// failures are retried with backoff.
func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
		logger: config.Logger,
		retry: retrypolicy.NewBuilder[[]Tweet]().
			HandleIf(func(_ []Tweet, err error) bool {
				var rl *RateLimitError
				var ce *ConnectionError
				return errors.As(err, &rl) || errors.As(err, &ce)
			}).
			WithBackoff(time.Second, 30*time.Second).
			WithMaxRetries(3).
			WithJitterFactor(0.1).
			Build(),
	}
}

// Search runs query and returns up to count tweets.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Tweet, error) {
	if count <= 0 {
		count = c.config.TweetsPerRequest
	}

	attempts := 0
	return failsafe.With[[]Tweet](c.retry).WithContext(ctx).Get(func() ([]Tweet, error) {
		attempts++
		if attempts > 1 {
			metrics.IncAPIRetry("masa_search")
			c.logger.WithFields(logrus.Fields{
				"query":   query,
				"attempt": attempts,
			}).Warn("Retrying Masa search")
		}
		return c.search(ctx, query, count)
	})
}

func (c *Client) search(ctx context.Context, query string, count int) ([]Tweet, error) {
	jsonBody, err := json.Marshal(SearchRequest{Query: query, Count: count})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIEndpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == StatusRateLimit {
			return nil, NewRateLimitError(0, "")
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}

	var response struct {
		Data []struct {
			Tweet Tweet `json:"Tweet"`
		} `json:"data"`
		WorkerPeerID string `json:"workerPeerId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	tweets := make([]Tweet, len(response.Data))
	for i, item := range response.Data {
		tweets[i] = item.Tweet
	}

	c.logger.WithFields(logrus.Fields{
		"query":       query,
		"count":       len(tweets),
		"worker_peer": response.WorkerPeerID,
	}).Debug("Masa search completed")

	return tweets, nil
}
