package models

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultRelevanceThreshold = 6
	DefaultBatchPageSize      = 5
)

// AccountConfig is the per-account triage configuration edited by operators.
type AccountConfig struct {
	RelevanceThreshold int    `gorm:"column:relevance_threshold;not null" yaml:"relevanceThreshold"`
	AutoApprove        bool   `gorm:"column:auto_approve;not null" yaml:"autoApprove"`
	BatchPageSize      int    `gorm:"column:batch_page_size;not null" yaml:"batchPageSize"`
	AnalyzeMedia       bool   `gorm:"column:analyze_media;not null" yaml:"analyzeMedia"`
	Tone               string `gorm:"column:tone" yaml:"tone"`
	Language           string `gorm:"column:language" yaml:"language"`
}

// DefaultAccountConfig returns the configuration applied to newly watched accounts.
func DefaultAccountConfig() AccountConfig {
	return AccountConfig{
		RelevanceThreshold: DefaultRelevanceThreshold,
		BatchPageSize:      DefaultBatchPageSize,
		Language:           "en",
	}
}

// Validate checks operator-supplied values.
func (c AccountConfig) Validate() error {
	if c.RelevanceThreshold < 1 || c.RelevanceThreshold > 10 {
		return fmt.Errorf("relevance threshold must be between 1 and 10, got %d", c.RelevanceThreshold)
	}
	if c.BatchPageSize < 0 {
		return fmt.Errorf("batch page size cannot be negative")
	}
	return nil
}

// PageSize returns the configured batch page size, falling back to the default.
func (c AccountConfig) PageSize() int {
	if c.BatchPageSize < 1 {
		return DefaultBatchPageSize
	}
	return c.BatchPageSize
}

// ThreadEntry tracks the buffered parts of one conversation.
type ThreadEntry struct {
	ItemIDs     []string `json:"tweet_ids"`
	StaleCycles int      `json:"stale_cycles"`
}

// ThreadBuffer maps conversation id to its buffered parts.
type ThreadBuffer map[string]ThreadEntry

// Contains reports whether itemID is buffered under any conversation.
func (b ThreadBuffer) Contains(itemID string) bool {
	for _, entry := range b {
		for _, id := range entry.ItemIDs {
			if id == itemID {
				return true
			}
		}
	}
	return false
}

// Append records itemID as a new part of conversationID and resets its staleness.
func (b ThreadBuffer) Append(conversationID, itemID string) {
	entry := b[conversationID]
	for _, id := range entry.ItemIDs {
		if id == itemID {
			entry.StaleCycles = 0
			b[conversationID] = entry
			return
		}
	}
	entry.ItemIDs = append(entry.ItemIDs, itemID)
	entry.StaleCycles = 0
	b[conversationID] = entry
}

// Prepend makes itemID the first part of conversationID, which is where a thread's
// opening post belongs, and resets its staleness.
func (b ThreadBuffer) Prepend(conversationID, itemID string) {
	entry := b[conversationID]
	ids := make([]string, 0, len(entry.ItemIDs)+1)
	ids = append(ids, itemID)
	for _, id := range entry.ItemIDs {
		if id != itemID {
			ids = append(ids, id)
		}
	}
	entry.ItemIDs = ids
	entry.StaleCycles = 0
	b[conversationID] = entry
}

// ConversationIDs returns the buffered conversation ids in sorted order.
func (b ThreadBuffer) ConversationIDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the buffer.
func (b ThreadBuffer) Clone() ThreadBuffer {
	out := make(ThreadBuffer, len(b))
	for conv, entry := range b {
		out[conv] = ThreadEntry{
			ItemIDs:     append([]string(nil), entry.ItemIDs...),
			StaleCycles: entry.StaleCycles,
		}
	}
	return out
}

// WatchedAccount is an external account an operator asked the bot to poll
type WatchedAccount struct {
	ID             string  `gorm:"primaryKey;column:id"`
	PlatformUserID string  `gorm:"column:platform_user_id;not null;uniqueIndex:idx_watch_operator_user"`
	Handle         string  `gorm:"column:handle;not null"`
	OperatorID     string  `gorm:"column:operator_id;not null;uniqueIndex:idx_watch_operator_user;index"`
	LastSeenID     *string `gorm:"column:last_seen_id"`

	ThreadBuffer datatypes.JSONType[ThreadBuffer] `gorm:"column:thread_buffer;not null"`
	Config       AccountConfig                    `gorm:"embedded;embeddedPrefix:cfg_"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the WatchedAccount model
func (WatchedAccount) TableName() string {
	return "watched_accounts"
}

// Buffer returns a mutable copy of the stored thread buffer.
func (a WatchedAccount) Buffer() ThreadBuffer {
	data := a.ThreadBuffer.Data()
	if data == nil {
		return ThreadBuffer{}
	}
	return data.Clone()
}

// AccountUpdate carries the poller-owned fields of an account. Nil fields are left untouched.
type AccountUpdate struct {
	LastSeenID   *string
	ThreadBuffer ThreadBuffer
}
