package masatwitter

import (
	"context"
	"fmt"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

const baselineCount = 5

// FeedReader serves the poller from Masa search. Queries are built on the account handle,
// so accounts without one cannot be polled.
type FeedReader struct {
	client *Client
}

func NewFeedReader(client *Client) *FeedReader {
	return &FeedReader{client: client}
}

var _ pipeline.FeedClient = (*FeedReader)(nil)

func (f *FeedReader) FetchNew(ctx context.Context, userID, handle, sinceID string) (pipeline.FetchResult, error) {
	if handle == "" {
		return pipeline.FetchResult{}, fmt.Errorf("masatwitter: account %s has no handle", userID)
	}

	query := "from:" + handle
	count := 0
	if sinceID == "" {
		count = baselineCount
	} else {
		query += " since_id:" + sinceID
	}

	tweets, err := f.client.Search(ctx, query, count)
	if err != nil {
		return pipeline.FetchResult{}, err
	}

	// every result of a from: query is the author's, so a parent in the batch or at the cursor means a self-reply
	own := make(map[string]struct{}, len(tweets))
	for _, t := range tweets {
		own[t.ID] = struct{}{}
	}

	var result pipeline.FetchResult
	for _, t := range tweets {
		if t.IsRetweet {
			continue
		}
		// search may return the cursor post itself
		if sinceID != "" && !newerID(t.ID, sinceID) {
			continue
		}
		item := toFeedItem(t)
		_, inBatch := own[item.InReplyToID]
		if item.IsReply && item.InReplyToUserID == "" && (inBatch || (sinceID != "" && item.InReplyToID == sinceID)) {
			item.InReplyToUserID = t.UserID
		}
		result.Items = append(result.Items, item)
		if newerID(t.ID, result.NewestID) {
			result.NewestID = t.ID
		}
	}
	return result, nil
}

// ResolveUserID finds a handle's user id from its most recent post.
func (f *FeedReader) ResolveUserID(ctx context.Context, handle string) (string, error) {
	tweets, err := f.client.Search(ctx, "from:"+handle, 1)
	if err != nil {
		return "", err
	}
	for _, t := range tweets {
		if t.UserID != "" {
			return t.UserID, nil
		}
	}
	return "", fmt.Errorf("masatwitter: no posts found for %s", handle)
}

func (f *FeedReader) FetchConversation(ctx context.Context, conversationID, authorHandle string) ([]pipeline.FeedItem, error) {
	query := "conversation_id:" + conversationID
	if authorHandle != "" {
		query += " from:" + authorHandle
	}
	tweets, err := f.client.Search(ctx, query, 100)
	if err != nil {
		return nil, err
	}

	items := make([]pipeline.FeedItem, 0, len(tweets))
	for _, t := range tweets {
		items = append(items, toFeedItem(t))
	}
	return items, nil
}

func toFeedItem(t Tweet) pipeline.FeedItem {
	item := pipeline.FeedItem{
		ID:             t.ID,
		AuthorID:       t.UserID,
		ConversationID: t.ConversationID,
		Text:           t.Text,
		CreatedAt:      t.CreatedAt(),
		IsReply:        t.IsReply,
		InReplyToID:    t.InReplyToStatusID,
		URL:            t.PermanentURL,
		Metrics: &models.EngagementMetrics{
			Likes:       t.Likes,
			Replies:     t.Replies,
			Reposts:     t.Retweets,
			Impressions: t.Views,
		},
	}
	if item.ConversationID == "" {
		item.ConversationID = t.ID
	}
	if t.InReplyToStatus != nil {
		item.InReplyToUserID = t.InReplyToStatus.UserID
	}
	if len(t.Photos) > 0 {
		item.MediaRef = t.Photos[0].URL
	}
	if item.URL == "" && t.Username != "" {
		item.URL = fmt.Sprintf("https://x.com/%s/status/%s", t.Username, t.ID)
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
