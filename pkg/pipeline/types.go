package pipeline

import (
	"context"
	"time"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

// FeedItem is one post as returned by the platform, before classification.
type FeedItem struct {
	ID              string
	AuthorID        string
	ConversationID  string
	Text            string
	CreatedAt       time.Time
	IsReply         bool
	InReplyToID     string
	InReplyToUserID string
	MediaRef        string
	URL             string
	Metrics         *models.EngagementMetrics
}

// FetchResult is the outcome of polling one account.
type FetchResult struct {
	Items    []FeedItem
	NewestID string
}

// FeedClient reads from the social platform. An empty sinceID asks for a baseline
// fetch that only needs to report the newest id. Backends that search by name use handle.
type FeedClient interface {
	FetchNew(ctx context.Context, userID, handle, sinceID string) (FetchResult, error)
	FetchConversation(ctx context.Context, conversationID, authorHandle string) ([]FeedItem, error)
}

// Scorer rates a batch of pending items in a single call.
type Scorer interface {
	ScoreBatch(ctx context.Context, items []models.Item) ([]models.ScoreResult, error)
}

// DraftGenerator produces downstream content for an approved item and returns its reference.
type DraftGenerator interface {
	Generate(ctx context.Context, item models.Item, cfg models.AccountConfig) (string, error)
}

// Notifier delivers rendered pages to an operator.
type Notifier interface {
	Send(ctx context.Context, operatorID string, page RenderedPage) (string, error)
	Edit(ctx context.Context, messageID string, page RenderedPage) error
}

// Locker guards an operator's cycle against overlapping runs.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// AccountStore is the slice of account persistence the pipeline needs.
type AccountStore interface {
	OperatorIDs(ctx context.Context) ([]string, error)
	WatchedAccounts(ctx context.Context, operatorID string) ([]models.WatchedAccount, error)
	GetAccount(ctx context.Context, accountID string) (*models.WatchedAccount, error)
	UpdateAccount(ctx context.Context, accountID string, update models.AccountUpdate) error
}

// ItemStore is the slice of item persistence the pipeline needs.
type ItemStore interface {
	UpsertItem(ctx context.Context, item *models.Item) (bool, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	GetItems(ctx context.Context, ids []string) ([]models.Item, error)
	ItemsByStatus(ctx context.Context, operatorID string, status models.ItemStatus, limit int) ([]models.Item, error)
	ItemsByBatchMessage(ctx context.Context, messageID string) ([]models.Item, error)
	TransitionItems(ctx context.Context, ids []string, target models.ItemStatus) (int64, error)
	CompleteThread(ctx context.Context, headID, text string, mergedIDs []string) error
	AttachThread(ctx context.Context, rootID, text string, partIDs []string) error
	RecordScores(ctx context.Context, scores []models.ScoreResult) (int64, error)
	MarkNotified(ctx context.Context, ids []string, messageID string) (int64, error)
	MarkDrafted(ctx context.Context, itemID, draftRef string) error
}
