package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

// ClientOption allows for customization of the client
type ClientOption func(*TwitterClient)

// WithHTTPClient replaces the authenticated HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *TwitterClient) {
		c.auth.client = hc
	}
}

type TwitterClient struct {
	config  *TwitterConfig
	auth    *Authenticator
	logger  *logrus.Logger
	limiter *rate.Limiter
	retry   retrypolicy.RetryPolicy[*http.Response]
}

// NewTwitterClient creates a new Twitter API client
func NewTwitterClient(config *TwitterConfig, opts ...ClientOption) (*TwitterClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	auth, err := NewAuthenticator(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	window := time.Duration(config.RateWindow) * time.Minute
	client := &TwitterClient{
		config:  config,
		auth:    auth,
		logger:  config.Logger,
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(config.RateLimit)), config.RateBurst),
	}
	client.retry = newRetryPolicy(config)

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// retryableError marks responses worth another attempt.
type retryableError struct {
	status int
	body   string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("twitter api error: status=%d body=%s", e.status, e.body)
}

func newRetryPolicy(config *TwitterConfig) retrypolicy.RetryPolicy[*http.Response] {
	return retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(_ *http.Response, err error) bool {
			var re *retryableError
			return errors.As(err, &re)
		}).
		WithBackoff(config.RetryBaseDelay, config.RetryMaxDelay).
		WithMaxRetries(config.RetryAttempts).
		WithJitterFactor(0.1).
		Build()
}

// handleResponse checks for API errors in the response
func (c *TwitterClient) handleResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &retryableError{status: resp.StatusCode, body: string(body)}
	}

	var errResp struct {
		Errors []TwitterError `json:"errors"`
		Title  string         `json:"title"`
		Detail string         `json:"detail"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("twitter api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	if len(errResp.Errors) > 0 {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"error_code":  errResp.Errors[0].Code,
			"message":     errResp.Errors[0].Message,
		}).Error("Twitter API error")
		return &errResp.Errors[0]
	}

	return fmt.Errorf("twitter api error: status=%d title=%s detail=%s", resp.StatusCode, errResp.Title, errResp.Detail)
}

// getJSON issues a rate-limited, retried GET and decodes a successful body into out.
// route names the call for logs and metrics.
func (c *TwitterClient) getJSON(ctx context.Context, route, endpoint string, query url.Values, out interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	fullURL := c.config.BaseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	attempts := 0
	resp, err := failsafe.With[*http.Response](c.retry).WithContext(ctx).Get(func() (*http.Response, error) {
		attempts++
		if attempts > 1 {
			metrics.IncAPIRetry(route)
			c.logger.WithFields(logrus.Fields{
				"route":   route,
				"attempt": attempts,
			}).Warn("Retrying Twitter API request")
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if err := c.auth.SetAuthHeader(req); err != nil {
			return nil, err
		}

		resp, err := c.auth.GetClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to make request: %w", err)
		}
		if err := c.handleResponse(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
