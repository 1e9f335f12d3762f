package twitter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// GetUserTweetsParams holds the parameters for the GetUserTweets request
type GetUserTweetsParams struct {
	UserID     string
	SinceID    string
	MaxResults int
	MaxPages   int
}

// GetUserTweets streams pages of a user's timeline, newest first, excluding reposts.
// Rate limit: 1500/15m (app), 900/15m (user)
func (c *TwitterClient) GetUserTweets(ctx context.Context, params GetUserTweetsParams) (<-chan *TweetResponse, <-chan error) {
	dataChan := make(chan *TweetResponse)
	errChan := make(chan error, 1)

	go func() {
		defer close(dataChan)
		defer close(errChan)

		log := c.logger.WithFields(logrus.Fields{
			"method":   "GetUserTweets",
			"user_id":  params.UserID,
			"since_id": params.SinceID,
		})

		endpoint := fmt.Sprintf("%s/%s/tweets", c.config.UserEndpoint, params.UserID)
		maxPages := params.MaxPages
		if maxPages < 1 {
			maxPages = c.config.MaxPages
		}

		query := c.tweetQuery(params.MaxResults)
		query.Set("exclude", "retweets")
		if params.SinceID != "" {
			query.Set("since_id", params.SinceID)
		}

		for page := 1; page <= maxPages; page++ {
			log.WithField("page", page).Debug("Fetching user tweets")

			var resp TweetResponse
			if err := c.getJSON(ctx, "user_tweets", endpoint, query, &resp); err != nil {
				errChan <- fmt.Errorf("failed to fetch user tweets: %w", err)
				return
			}

			select {
			case dataChan <- &resp:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if resp.Meta == nil || resp.Meta.NextToken == "" {
				return
			}
			query.Set("pagination_token", resp.Meta.NextToken)
		}

		log.WithField("max_pages", maxPages).Warn("Stopped paging user tweets at page cap")
	}()

	return dataChan, errChan
}

// tweetQuery builds the field selection shared by every timeline and search call.
func (c *TwitterClient) tweetQuery(maxResults int) url.Values {
	if maxResults <= 0 {
		maxResults = c.config.PageSize
	}
	query := url.Values{}
	query.Set("max_results", strconv.Itoa(maxResults))
	query.Set("tweet.fields", strings.Join(c.config.TweetFields, ","))
	if len(c.config.ExpansionFields) > 0 {
		query.Set("expansions", strings.Join(c.config.ExpansionFields, ","))
	}
	if len(c.config.MediaFields) > 0 {
		query.Set("media.fields", strings.Join(c.config.MediaFields, ","))
	}
	return query
}
