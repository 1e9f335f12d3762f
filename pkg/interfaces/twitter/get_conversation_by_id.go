package twitter

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// GetConversationParams holds the parameters for retrieving a conversation thread
type GetConversationParams struct {
	ConversationID string
	// AuthorHandle restricts results to the author's own posts in the conversation.
	AuthorHandle string
	MaxPages     int
}

// GetConversation collects the posts of a conversation from recent search.
// Rate limit: 450/15m (app), 180/15m (user)
func (c *TwitterClient) GetConversation(ctx context.Context, params GetConversationParams) (*TweetResponse, error) {
	log := c.logger.WithFields(logrus.Fields{
		"method":          "GetConversation",
		"conversation_id": params.ConversationID,
	})

	search := "conversation_id:" + params.ConversationID
	if params.AuthorHandle != "" {
		search += " from:" + params.AuthorHandle
	}

	maxPages := params.MaxPages
	if maxPages < 1 {
		maxPages = c.config.MaxPages
	}

	query := c.tweetQuery(100)
	query.Set("query", search)

	merged := &TweetResponse{Meta: &Meta{}}
	for page := 1; page <= maxPages; page++ {
		var resp TweetResponse
		if err := c.getJSON(ctx, "conversation", c.config.SearchEndpoint, query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch conversation %s: %w", params.ConversationID, err)
		}

		merged.Data = append(merged.Data, resp.Data...)
		if resp.Includes != nil {
			if merged.Includes == nil {
				merged.Includes = &TweetIncludes{}
			}
			merged.Includes.Users = append(merged.Includes.Users, resp.Includes.Users...)
			merged.Includes.Media = append(merged.Includes.Media, resp.Includes.Media...)
		}
		if resp.Meta == nil || resp.Meta.NextToken == "" {
			break
		}
		query.Set("next_token", resp.Meta.NextToken)
	}
	merged.Meta.ResultCount = len(merged.Data)

	log.WithField("count", len(merged.Data)).Debug("Fetched conversation")
	return merged, nil
}

// GetUserByUsername resolves a handle to its platform user.
func (c *TwitterClient) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var resp UserResponse
	if err := c.getJSON(ctx, "user_lookup", c.config.UserEndpoint+"/by/username/"+username, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	if resp.Data == nil {
		if len(resp.Errors) > 0 {
			return nil, &resp.Errors[0]
		}
		return nil, fmt.Errorf("user %s not found", username)
	}
	return resp.Data, nil
}
