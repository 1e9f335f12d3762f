package twitter

import "fmt"

// Tweet holds the v2 post fields the feed reader requests.
type Tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`

	Attachments struct {
		MediaKeys []string `json:"media_keys,omitempty"`
	} `json:"attachments,omitempty"`
	AuthorID        string `json:"author_id,omitempty"`
	ConversationID  string `json:"conversation_id,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	InReplyToUserID string `json:"in_reply_to_user_id,omitempty"`
	PublicMetrics   struct {
		RetweetCount    int `json:"retweet_count"`
		ReplyCount      int `json:"reply_count"`
		LikeCount       int `json:"like_count"`
		QuoteCount      int `json:"quote_count"`
		ImpressionCount int `json:"impression_count"`
	} `json:"public_metrics,omitempty"`
	ReferencedTweets []ReferencedTweet `json:"referenced_tweets,omitempty"`
}

// ReferencedTweet links a post to the one it replies to, quotes or reposts.
type ReferencedTweet struct {
	Type string `json:"type"` // "retweeted" or "quoted" or "replied_to"
	ID   string `json:"id"`
}

// RepliedTo returns the id of the post this one answers, if any.
func (t Tweet) RepliedTo() (string, bool) {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == "replied_to" {
			return ref.ID, true
		}
	}
	return "", false
}

// TweetResponse represents the Twitter API response format
type TweetResponse struct {
	Data     []Tweet        `json:"data"`
	Includes *TweetIncludes `json:"includes,omitempty"`
	Errors   []TwitterError `json:"errors,omitempty"`
	Meta     *Meta          `json:"meta,omitempty"`
}

// TweetIncludes contains the expanded objects in the response
type TweetIncludes struct {
	Users []User  `json:"users,omitempty"`
	Media []Media `json:"media,omitempty"`
}

// TwitterError represents an error returned by the Twitter API
type TwitterError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *TwitterError) Error() string {
	return fmt.Sprintf("Twitter API error %d: %s", e.Code, e.Message)
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// UserResponse is the envelope of a single user lookup.
type UserResponse struct {
	Data   *User          `json:"data"`
	Errors []TwitterError `json:"errors,omitempty"`
}

// Media represents a media object attached to a Tweet
type Media struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"` // "animated_gif", "photo", "video"
	URL             string `json:"url,omitempty"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
}

type Meta struct {
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token,omitempty"`
}
