package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ItemStore persists fetched items and enforces forward-only status changes
type ItemStore struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	db     *gorm.DB
}

func NewItemStore(logger *logrus.Logger, db *gorm.DB) *ItemStore {
	return &ItemStore{
		logger: logger,
		db:     db,
	}
}

// UpsertItem inserts the item once per platform id. A repeated call only refreshes the
// engagement metrics, so content and status are never rolled back by a re-fetch.
func (s *ItemStore) UpsertItem(ctx context.Context, item *models.Item) (bool, error) {
	if !item.Status.Valid() {
		return false, fmt.Errorf("%w: unknown status %q", models.ErrInvalidTransition, item.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(item)
		if result.Error != nil {
			return fmt.Errorf("failed to insert item: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			created = true
			return nil
		}

		if item.Metrics == nil {
			return nil
		}
		if err := tx.Model(&models.Item{}).
			Where("id = ?", item.ID).
			Select("metrics").
			Updates(&models.Item{Metrics: item.Metrics}).Error; err != nil {
			return fmt.Errorf("failed to refresh item metrics: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"item_id":    item.ID,
		"account_id": item.AccountID,
		"status":     item.Status,
		"created":    created,
	}).Debug("Upserted item")

	return created, nil
}

// GetItem returns a single item by id
func (s *ItemStore) GetItem(ctx context.Context, id string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var item models.Item
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", id, err)
	}
	return &item, nil
}

// GetItems returns the items with the given ids, oldest post first.
func (s *ItemStore) GetItems(ctx context.Context, ids []string) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Item
	if err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("posted_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	return items, nil
}

// ItemsByStatus returns an operator's items in the given status, oldest first.
// A limit of zero returns every match.
func (s *ItemStore) ItemsByStatus(ctx context.Context, operatorID string, status models.ItemStatus, limit int) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := s.db.WithContext(ctx).
		Where("operator_id = ? AND status = ?", operatorID, status).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s items: %w", status, err)
	}
	return items, nil
}

// ItemsByBatchMessage re-queries the items that were sent under one notification,
// highest score first.
func (s *ItemStore) ItemsByBatchMessage(ctx context.Context, messageID string) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Item
	if err := s.db.WithContext(ctx).
		Where("batch_message_id = ?", messageID).
		Order("relevance_score DESC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", messageID, err)
	}
	return items, nil
}

// TransitionItems moves every listed item that is allowed to reach target. Items already
// past that point are left alone, so the call is safe to repeat.
func (s *ItemStore) TransitionItems(ctx context.Context, ids []string, target models.ItemStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return transition(s.db.WithContext(ctx), ids, target)
}

func transition(tx *gorm.DB, ids []string, target models.ItemStatus) (int64, error) {
	from := models.PredecessorsOf(target)
	if len(from) == 0 {
		return 0, fmt.Errorf("%w: nothing may move to %s", models.ErrInvalidTransition, target)
	}

	result := tx.Model(&models.Item{}).
		Where("id IN ? AND status IN ?", ids, from).
		Update("status", target)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to move items to %s: %w", target, result.Error)
	}
	return result.RowsAffected, nil
}

// CompleteThread rewrites the head of a finished thread with the composite text and
// retires the remaining parts in one transaction.
func (s *ItemStore) CompleteThread(ctx context.Context, headID, text string, mergedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Item{}).
			Where("id = ? AND status = ?", headID, models.StatusBuffered).
			Updates(map[string]interface{}{
				"text":       text,
				"is_thread":  true,
				"status":     models.StatusPending,
				"merged_ids": pq.StringArray(mergedIDs),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to rewrite thread head: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: thread head %s is not buffered", models.ErrInvalidTransition, headID)
		}

		if _, err := transition(tx, mergedIDs, models.StatusSkipped); err != nil {
			return err
		}
		return nil
	})
}

// AttachThread folds a finished thread into its opening post after that post was already
// surfaced on its own. The root keeps its status and batch, takes the composite text and
// the parts are retired.
func (s *ItemStore) AttachThread(ctx context.Context, rootID, text string, partIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Item{}).
			Where("id = ? AND status IN ?", rootID, []models.ItemStatus{models.StatusNotified, models.StatusDrafted}).
			Updates(map[string]interface{}{
				"text":       text,
				"is_thread":  true,
				"merged_ids": pq.StringArray(partIDs),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to attach thread to root: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: thread root %s was never surfaced", models.ErrInvalidTransition, rootID)
		}

		if _, err := transition(tx, partIDs, models.StatusSkipped); err != nil {
			return err
		}
		return nil
	})
}

// RecordScores stores scorer results on pending items and advances them to scored.
func (s *ItemStore) RecordScores(ctx context.Context, scores []models.ScoreResult) (int64, error) {
	if len(scores) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sc := range scores {
			result := tx.Model(&models.Item{}).
				Where("id = ? AND status = ?", sc.ID, models.StatusPending).
				Updates(map[string]interface{}{
					"status":           models.StatusScored,
					"relevance_score":  sc.Score,
					"relevance_reason": sc.Reason,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to record score for %s: %w", sc.ID, result.Error)
			}
			updated += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// MarkNotified assigns the notification id and the notified status together. Only scored
// items that were never part of a batch are touched.
func (s *ItemStore) MarkNotified(ctx context.Context, ids []string, messageID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Item{}).
			Where("id IN ? AND status = ? AND batch_message_id IS NULL", ids, models.StatusScored).
			Updates(map[string]interface{}{
				"status":           models.StatusNotified,
				"batch_message_id": messageID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark items notified: %w", result.Error)
		}
		updated = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"message_id": messageID,
		"requested":  len(ids),
		"updated":    updated,
	}).Debug("Marked items notified")

	return updated, nil
}

// MarkDrafted records the generated draft on a scored or notified item.
func (s *ItemStore) MarkDrafted(ctx context.Context, itemID, draftRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND status IN ?", itemID, models.PredecessorsOf(models.StatusDrafted)).
		Updates(map[string]interface{}{
			"status":    models.StatusDrafted,
			"draft_ref": draftRef,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark item drafted: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: item %s cannot be drafted", models.ErrInvalidTransition, itemID)
	}
	return nil
}
