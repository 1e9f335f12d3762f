package twitter

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

const baselinePageSize = 5

// FeedReader adapts the client to the poller's feed interface.
type FeedReader struct {
	client *TwitterClient
	logger *logrus.Logger
}

func NewFeedReader(client *TwitterClient) *FeedReader {
	return &FeedReader{client: client, logger: client.logger}
}

var _ pipeline.FeedClient = (*FeedReader)(nil)

// FetchNew returns the account's posts newer than sinceID. With no cursor it reads a
// single small page, enough to learn the newest id.
func (f *FeedReader) FetchNew(ctx context.Context, userID, _, sinceID string) (pipeline.FetchResult, error) {
	params := GetUserTweetsParams{UserID: userID, SinceID: sinceID}
	if sinceID == "" {
		params.MaxResults = baselinePageSize
		params.MaxPages = 1
	}

	dataChan, errChan := f.client.GetUserTweets(ctx, params)

	var result pipeline.FetchResult
	for resp := range dataChan {
		if result.NewestID == "" && resp.Meta != nil {
			result.NewestID = resp.Meta.NewestID
		}
		result.Items = append(result.Items, toFeedItems(resp)...)
	}
	if err := <-errChan; err != nil {
		return pipeline.FetchResult{}, err
	}

	// Meta is missing on some empty responses
	if result.NewestID == "" {
		for _, item := range result.Items {
			if newerID(item.ID, result.NewestID) {
				result.NewestID = item.ID
			}
		}
	}

	f.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"since_id": sinceID,
		"fetched":  len(result.Items),
		"newest":   result.NewestID,
	}).Debug("Fetched timeline")

	return result, nil
}

// FetchConversation returns the author's own posts in a conversation.
func (f *FeedReader) FetchConversation(ctx context.Context, conversationID, authorHandle string) ([]pipeline.FeedItem, error) {
	resp, err := f.client.GetConversation(ctx, GetConversationParams{
		ConversationID: conversationID,
		AuthorHandle:   authorHandle,
	})
	if err != nil {
		return nil, err
	}
	return toFeedItems(resp), nil
}

func toFeedItems(resp *TweetResponse) []pipeline.FeedItem {
	media := make(map[string]Media)
	if resp.Includes != nil {
		for _, m := range resp.Includes.Media {
			media[m.MediaKey] = m
		}
	}

	items := make([]pipeline.FeedItem, 0, len(resp.Data))
	for _, t := range resp.Data {
		items = append(items, toFeedItem(t, media))
	}
	return items
}

func toFeedItem(t Tweet, media map[string]Media) pipeline.FeedItem {
	item := pipeline.FeedItem{
		ID:              t.ID,
		AuthorID:        t.AuthorID,
		ConversationID:  t.ConversationID,
		Text:            t.Text,
		InReplyToUserID: t.InReplyToUserID,
		URL:             "https://x.com/i/web/status/" + t.ID,
		Metrics: &models.EngagementMetrics{
			Likes:       t.PublicMetrics.LikeCount,
			Replies:     t.PublicMetrics.ReplyCount,
			Reposts:     t.PublicMetrics.RetweetCount,
			Quotes:      t.PublicMetrics.QuoteCount,
			Impressions: t.PublicMetrics.ImpressionCount,
		},
	}
	if item.ConversationID == "" {
		item.ConversationID = t.ID
	}
	if parent, ok := t.RepliedTo(); ok {
		item.IsReply = true
		item.InReplyToID = parent
	}
	if created, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
		item.CreatedAt = created
	}
	if len(t.Attachments.MediaKeys) > 0 {
		key := t.Attachments.MediaKeys[0]
		item.MediaRef = key
		if m, ok := media[key]; ok {
			switch {
			case m.URL != "":
				item.MediaRef = m.URL
			case m.PreviewImageURL != "":
				item.MediaRef = m.PreviewImageURL
			}
		}
	}
	return item
}

// newerID compares snowflake ids, which grow with time.
func newerID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
