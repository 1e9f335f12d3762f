package models

import (
	"time"

	"github.com/lib/pq"
)

// EngagementMetrics holds public counters reported by the platform.
type EngagementMetrics struct {
	Likes       int `json:"likes"`
	Replies     int `json:"replies"`
	Reposts     int `json:"reposts"`
	Quotes      int `json:"quotes"`
	Impressions int `json:"impressions,omitempty"`
}

// Item represents a fetched content unit owned by a watched account
type Item struct {
	ID             string `gorm:"primaryKey;column:id"`
	AccountID      string `gorm:"column:account_id;not null;index"`
	OperatorID     string `gorm:"column:operator_id;not null;index:idx_items_operator_status"`
	ConversationID string `gorm:"column:conversation_id;index"`

	// Content
	IsThread bool               `gorm:"column:is_thread;not null"`
	Text     string             `gorm:"column:text;not null"`
	MediaRef string             `gorm:"column:media_ref"`
	Metrics  *EngagementMetrics `gorm:"column:metrics;type:jsonb;serializer:json"`
	URL      string             `gorm:"column:url"`
	PostedAt time.Time          `gorm:"column:posted_at"`

	// Triage
	Status          ItemStatus     `gorm:"column:status;not null;index:idx_items_operator_status"`
	RelevanceScore  *int           `gorm:"column:relevance_score"`
	RelevanceReason string         `gorm:"column:relevance_reason"`
	BatchMessageID  *string        `gorm:"column:batch_message_id;index"`
	DraftRef        *string        `gorm:"column:draft_ref"`
	MergedIDs       pq.StringArray `gorm:"column:merged_ids;type:text[]"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// Score returns the relevance score, or zero when the item has not been scored.
func (i Item) Score() int {
	if i.RelevanceScore == nil {
		return 0
	}
	return *i.RelevanceScore
}

// Notified reports whether the item was already included in a sent notification.
func (i Item) Notified() bool {
	return i.BatchMessageID != nil && *i.BatchMessageID != ""
}

// ScoreResult is one entry returned by a relevance scorer.
type ScoreResult struct {
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Draft is generated downstream content for an approved item.
type Draft struct {
	ID         string    `gorm:"primaryKey;column:id"`
	ItemID     string    `gorm:"column:item_id;not null;index"`
	OperatorID string    `gorm:"column:operator_id;not null"`
	Text       string    `gorm:"column:text;not null"`
	Tone       string    `gorm:"column:tone"`
	Language   string    `gorm:"column:language"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for the Draft model
func (Draft) TableName() string {
	return "drafts"
}
