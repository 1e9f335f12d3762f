package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

const (
	DefaultStaleCycles     = 2
	DefaultMaxStaleCycles  = 8
	DefaultMaxBuffered     = 50
	DefaultThreadSeparator = "\n\n---\n\n"
)

// ThreadConfig bounds thread buffering for one account.
type ThreadConfig struct {
	// StaleCycles is how many quiet cycles mark a thread as finished.
	StaleCycles int
	// MaxStaleCycles abandons a thread whose completion keeps failing.
	MaxStaleCycles int
	// MaxBuffered caps open conversations per account; the stalest are evicted first.
	MaxBuffered int
	Separator   string
}

func (c ThreadConfig) withDefaults() ThreadConfig {
	if c.StaleCycles <= 0 {
		c.StaleCycles = DefaultStaleCycles
	}
	if c.MaxStaleCycles < c.StaleCycles {
		c.MaxStaleCycles = DefaultMaxStaleCycles
		if c.MaxStaleCycles < c.StaleCycles {
			c.MaxStaleCycles = c.StaleCycles
		}
	}
	if c.MaxBuffered <= 0 {
		c.MaxBuffered = DefaultMaxBuffered
	}
	if c.Separator == "" {
		c.Separator = DefaultThreadSeparator
	}
	return c
}

// Classification says how a fetched item enters the pipeline.
type Classification int

const (
	Standalone Classification = iota
	Continuation
	Foreign
)

func (c Classification) String() string {
	switch c {
	case Standalone:
		return "standalone"
	case Continuation:
		return "continuation"
	default:
		return "foreign"
	}
}

// Classify treats a reply to the account itself as a thread continuation and any other
// reply as foreign content.
func Classify(item FeedItem, accountUserID string) Classification {
	if !item.IsReply {
		return Standalone
	}
	if item.InReplyToUserID != "" && item.InReplyToUserID == accountUserID {
		return Continuation
	}
	return Foreign
}

// IngestResult summarizes how one account's fetched items were stored.
type IngestResult struct {
	Pending    []string
	Buffered   int
	Discarded  int
	Duplicates int
	Touched    map[string]struct{}
}

// SweepResult summarizes one staleness sweep.
type SweepResult struct {
	// Completed holds new pending heads.
	Completed []string
	// Attached counts threads folded into a root post that was already surfaced.
	Attached  int
	Abandoned int
	Failed    int
	Dropped   int
}

// ThreadReconstructor turns out-of-order self-replies into single composite items.
type ThreadReconstructor struct {
	feed   FeedClient
	items  ItemStore
	cfg    ThreadConfig
	logger *logrus.Logger
}

func NewThreadReconstructor(feed FeedClient, items ItemStore, cfg ThreadConfig, logger *logrus.Logger) *ThreadReconstructor {
	return &ThreadReconstructor{
		feed:   feed,
		items:  items,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// Ingest stores fetched items and records continuations in buffer. Items are handled in
// creation order so buffered ids stay chronological.
func (r *ThreadReconstructor) Ingest(ctx context.Context, account models.WatchedAccount, buffer models.ThreadBuffer, fetched []FeedItem) (IngestResult, error) {
	res := IngestResult{Touched: make(map[string]struct{})}

	ordered := append([]FeedItem(nil), fetched...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	roots := threadRoots(ordered, account.PlatformUserID)

	for _, f := range ordered {
		kind := Classify(f, account.PlatformUserID)
		log := r.logger.WithFields(logrus.Fields{
			"account_id": account.ID,
			"item_id":    f.ID,
			"kind":       kind.String(),
		})

		switch kind {
		case Foreign:
			res.Discarded++
			log.Debug("Discarding reply to another author")

		case Standalone:
			if _, ok := roots[f.ID]; ok {
				created, err := r.items.UpsertItem(ctx, newItem(account, f, models.StatusBuffered))
				if err != nil {
					return res, fmt.Errorf("failed to store thread root %s: %w", f.ID, err)
				}
				if !created {
					res.Duplicates++
					continue
				}
				buffer.Prepend(f.ID, f.ID)
				res.Touched[f.ID] = struct{}{}
				res.Buffered++
				log.Debug("Buffered thread root")
				continue
			}

			created, err := r.items.UpsertItem(ctx, newItem(account, f, models.StatusPending))
			if err != nil {
				return res, fmt.Errorf("failed to store item %s: %w", f.ID, err)
			}
			if !created {
				res.Duplicates++
				continue
			}
			res.Pending = append(res.Pending, f.ID)

		case Continuation:
			created, err := r.items.UpsertItem(ctx, newItem(account, f, models.StatusBuffered))
			if err != nil {
				return res, fmt.Errorf("failed to store continuation %s: %w", f.ID, err)
			}
			if !created {
				res.Duplicates++
				if buffer.Contains(f.ID) {
					continue
				}
			}
			conv := threadKey(f)
			buffer.Append(conv, f.ID)
			res.Touched[conv] = struct{}{}
			res.Buffered++
			log.WithField("conversation_id", conv).Debug("Buffered thread continuation")
		}
	}

	metrics.ItemsIngested.WithLabelValues("discarded").Add(float64(res.Discarded))
	metrics.ItemsIngested.WithLabelValues(string(models.StatusBuffered)).Add(float64(res.Buffered))
	metrics.ItemsIngested.WithLabelValues(string(models.StatusPending)).Add(float64(len(res.Pending)))

	return res, nil
}

// Sweep ages every conversation not touched this cycle and completes those that went
// quiet long enough. The buffer is updated in place.
func (r *ThreadReconstructor) Sweep(ctx context.Context, account models.WatchedAccount, buffer models.ThreadBuffer, touched map[string]struct{}) SweepResult {
	var res SweepResult

	for _, conv := range buffer.ConversationIDs() {
		if _, ok := touched[conv]; ok {
			continue
		}

		entry := buffer[conv]
		entry.StaleCycles++
		buffer[conv] = entry

		if entry.StaleCycles < r.cfg.StaleCycles {
			continue
		}

		log := r.logger.WithFields(logrus.Fields{
			"account_id":      account.ID,
			"conversation_id": conv,
			"parts":           len(entry.ItemIDs),
			"stale_cycles":    entry.StaleCycles,
		})

		head, pending, err := r.complete(ctx, account, conv, entry)
		if err == nil {
			delete(buffer, conv)
			metrics.ThreadsCompleted.Inc()
			if pending {
				res.Completed = append(res.Completed, head)
				log.WithField("item_id", head).Info("Completed thread")
			} else {
				res.Attached++
				log.WithField("item_id", head).Info("Completed thread into its surfaced root")
			}
			continue
		}

		if r.settled(ctx, entry) {
			delete(buffer, conv)
			res.Dropped++
			log.WithError(err).Info("Dropped thread that was already completed")
			continue
		}

		res.Failed++
		log.WithError(err).Warn("Failed to complete thread, will retry")

		if entry.StaleCycles >= r.cfg.MaxStaleCycles {
			if r.abandon(ctx, buffer, conv) {
				res.Abandoned++
			}
		}
	}

	res.Abandoned += r.evictOverflow(ctx, account, buffer)
	return res
}

// complete merges a finished conversation. It reports the item that now carries the
// thread and whether that item is a new pending head.
func (r *ThreadReconstructor) complete(ctx context.Context, account models.WatchedAccount, conv string, entry models.ThreadEntry) (string, bool, error) {
	if len(entry.ItemIDs) == 0 {
		return "", false, errors.New("thread has no buffered parts")
	}

	parts, err := r.feed.FetchConversation(ctx, conv, account.Handle)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	root, err := r.storedRoot(ctx, account, conv, entry)
	if err != nil {
		return "", false, err
	}

	texts := conversationTexts(parts)
	if len(texts) == 0 {
		ids := entry.ItemIDs
		if root != nil {
			ids = append([]string{root.ID}, ids...)
		}
		stored, err := r.items.GetItems(ctx, ids)
		if err != nil {
			return "", false, err
		}
		for _, item := range stored {
			texts = append(texts, item.Text)
		}
	}
	if len(texts) == 0 {
		return "", false, errors.New("conversation has no content")
	}
	text := strings.Join(texts, r.cfg.Separator)

	merged := append([]string(nil), entry.ItemIDs[1:]...)
	if root != nil {
		if root.Status == models.StatusNotified || root.Status == models.StatusDrafted {
			if err := r.items.AttachThread(ctx, root.ID, text, entry.ItemIDs); err != nil {
				return "", false, err
			}
			return root.ID, false, nil
		}
		if !root.Notified() && root.Status.CanAdvanceTo(models.StatusSkipped) {
			merged = append(merged, root.ID)
		}
	}

	head := entry.ItemIDs[0]
	if err := r.items.CompleteThread(ctx, head, text, merged); err != nil {
		return "", false, err
	}
	return head, true, nil
}

// storedRoot returns the conversation's opening post when it was stored on its own before
// any continuation arrived.
func (r *ThreadReconstructor) storedRoot(ctx context.Context, account models.WatchedAccount, conv string, entry models.ThreadEntry) (*models.Item, error) {
	for _, id := range entry.ItemIDs {
		if id == conv {
			return nil, nil
		}
	}
	found, err := r.items.GetItems(ctx, []string{conv})
	if err != nil {
		return nil, fmt.Errorf("failed to look up thread root: %w", err)
	}
	for i := range found {
		if found[i].ID == conv && found[i].AccountID == account.ID {
			return &found[i], nil
		}
	}
	return nil, nil
}

// settled reports whether the head already left buffered, meaning an earlier cycle
// completed the thread but could not persist the buffer.
func (r *ThreadReconstructor) settled(ctx context.Context, entry models.ThreadEntry) bool {
	if len(entry.ItemIDs) == 0 {
		return true
	}
	found, err := r.items.GetItems(ctx, entry.ItemIDs[:1])
	if err != nil || len(found) == 0 {
		return false
	}
	return found[0].Status != models.StatusBuffered
}

// abandon retires every buffered part of conv and drops the entry. A buffered opening
// post goes back to pending so it still surfaces on its own.
func (r *ThreadReconstructor) abandon(ctx context.Context, buffer models.ThreadBuffer, conv string) bool {
	entry := buffer[conv]
	parts := entry.ItemIDs
	if len(parts) > 0 && parts[0] == conv {
		if _, err := r.items.TransitionItems(ctx, parts[:1], models.StatusPending); err != nil {
			r.logger.WithError(err).WithField("conversation_id", conv).Error("Failed to release thread root")
			return false
		}
		parts = parts[1:]
	}
	if _, err := r.items.TransitionItems(ctx, parts, models.StatusSkipped); err != nil {
		r.logger.WithError(err).WithField("conversation_id", conv).Error("Failed to abandon thread")
		return false
	}
	delete(buffer, conv)
	metrics.ThreadsAbandoned.Inc()
	r.logger.WithFields(logrus.Fields{
		"conversation_id": conv,
		"parts":           len(entry.ItemIDs),
	}).Warn("Abandoned thread")
	return true
}

func (r *ThreadReconstructor) evictOverflow(ctx context.Context, account models.WatchedAccount, buffer models.ThreadBuffer) int {
	evicted := 0
	for len(buffer) > r.cfg.MaxBuffered {
		convs := buffer.ConversationIDs()
		sort.SliceStable(convs, func(i, j int) bool {
			return buffer[convs[i]].StaleCycles > buffer[convs[j]].StaleCycles
		})
		if !r.abandon(ctx, buffer, convs[0]) {
			break
		}
		evicted++
	}
	if evicted > 0 {
		r.logger.WithFields(logrus.Fields{
			"account_id": account.ID,
			"evicted":    evicted,
		}).Warn("Thread buffer over capacity")
	}
	return evicted
}

// threadRoots collects the conversations that self-replies in items belong to, so the
// post that opened one can be recognized in the same fetch.
func threadRoots(items []FeedItem, accountUserID string) map[string]struct{} {
	roots := make(map[string]struct{})
	for _, f := range items {
		if Classify(f, accountUserID) == Continuation {
			roots[threadKey(f)] = struct{}{}
		}
	}
	return roots
}

func conversationTexts(parts []FeedItem) []string {
	ordered := append([]FeedItem(nil), parts...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	texts := make([]string, 0, len(ordered))
	for _, p := range ordered {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

func threadKey(f FeedItem) string {
	switch {
	case f.ConversationID != "":
		return f.ConversationID
	case f.InReplyToID != "":
		return f.InReplyToID
	default:
		return f.ID
	}
}

func newItem(account models.WatchedAccount, f FeedItem, status models.ItemStatus) *models.Item {
	return &models.Item{
		ID:             f.ID,
		AccountID:      account.ID,
		OperatorID:     account.OperatorID,
		ConversationID: f.ConversationID,
		Text:           f.Text,
		MediaRef:       f.MediaRef,
		Metrics:        f.Metrics,
		URL:            f.URL,
		PostedAt:       f.CreatedAt,
		Status:         status,
	}
}
