package masatwitter

import "time"

// Tweet is a post as returned by the Masa scraper workers.
type Tweet struct {
	ID                string    `json:"ID"`
	ConversationID    string    `json:"ConversationID"`
	UserID            string    `json:"UserID"`
	Username          string    `json:"Username"`
	Text              string    `json:"Text"`
	TimeParsed        time.Time `json:"TimeParsed"`
	Timestamp         int64     `json:"Timestamp"`
	IsReply           bool      `json:"IsReply"`
	IsRetweet         bool      `json:"IsRetweet"`
	IsQuoted          bool      `json:"IsQuoted"`
	InReplyToStatusID string    `json:"InReplyToStatusID"`
	InReplyToStatus   *Tweet    `json:"InReplyToStatus,omitempty"`
	Likes             int       `json:"Likes"`
	Replies           int       `json:"Replies"`
	Retweets          int       `json:"Retweets"`
	Views             int       `json:"Views"`
	PermanentURL      string    `json:"PermanentURL"`
	Photos            []Photo   `json:"Photos"`
}

type Photo struct {
	ID  string `json:"ID"`
	URL string `json:"URL"`
}

// CreatedAt prefers the parsed time and falls back to the unix timestamp.
func (t Tweet) CreatedAt() time.Time {
	if !t.TimeParsed.IsZero() {
		return t.TimeParsed
	}
	if t.Timestamp > 0 {
		return time.Unix(t.Timestamp, 0).UTC()
	}
	return time.Time{}
}
