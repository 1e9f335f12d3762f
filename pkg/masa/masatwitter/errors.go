package masatwitter

import (
	"fmt"
	"net/http"
)

// StatusRateLimit is returned by the API when the worker pool is saturated.
const StatusRateLimit = http.StatusTooManyRequests

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("masatwitter: api error %d: %s", e.StatusCode, e.Message)
}

// RateLimitError signals the caller should back off.
type RateLimitError struct {
	RetryAfter int
	Message    string
}

func NewRateLimitError(retryAfter int, message string) *RateLimitError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return &RateLimitError{RetryAfter: retryAfter, Message: message}
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("masatwitter: %s, retry after %ds", e.Message, e.RetryAfter)
	}
	return "masatwitter: " + e.Message
}

// ConnectionError wraps transport failures.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("masatwitter: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
