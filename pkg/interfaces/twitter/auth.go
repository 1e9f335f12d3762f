package twitter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mrjones/oauth"
)

const (
	RequestTokenURL   = "https://api.twitter.com/oauth/request_token"
	AuthorizeTokenURL = "https://api.twitter.com/oauth/authorize"
	AccessTokenURL    = "https://api.twitter.com/oauth/access_token"

	httpTimeout = 30 * time.Second
)

// Authenticator signs read requests, either with OAuth 1.0a user context or an app bearer token.
type Authenticator struct {
	client      *http.Client
	bearerToken string
	userContext bool
}

func NewAuthenticator(config *TwitterConfig) (*Authenticator, error) {
	// OAuth 1.0a wins when both are configured; user context has higher read limits
	if config.HasWriteAccess() {
		return newUserAuthenticator(config)
	}
	if config.BearerToken != "" {
		return &Authenticator{
			client:      &http.Client{Timeout: httpTimeout},
			bearerToken: config.BearerToken,
		}, nil
	}
	return nil, fmt.Errorf("either OAuth 1.0a credentials or Bearer token must be provided")
}

func newUserAuthenticator(config *TwitterConfig) (*Authenticator, error) {
	consumer := oauth.NewConsumer(config.ConsumerKey, config.ConsumerSecret, oauth.ServiceProvider{
		RequestTokenUrl:   RequestTokenURL,
		AuthorizeTokenUrl: AuthorizeTokenURL,
		AccessTokenUrl:    AccessTokenURL,
	})
	consumer.HttpClient = &http.Client{Timeout: httpTimeout}

	client, err := consumer.MakeHttpClient(&oauth.AccessToken{
		Token:  config.AccessToken,
		Secret: config.AccessTokenSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth client: %w", err)
	}

	return &Authenticator{client: client, userContext: true}, nil
}

func (a *Authenticator) GetClient() *http.Client {
	return a.client
}

// SetAuthHeader adds the bearer token. The OAuth client signs requests itself.
func (a *Authenticator) SetAuthHeader(req *http.Request) error {
	if a.userContext {
		return nil
	}
	if a.bearerToken == "" {
		return fmt.Errorf("no credentials configured")
	}
	req.Header.Set("Authorization", "Bearer "+a.bearerToken)
	return nil
}
