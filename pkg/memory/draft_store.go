package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

// DraftStore keeps generated drafts until the publishing side picks them up
type DraftStore struct {
	db *gorm.DB
}

func NewDraftStore(db *gorm.DB) *DraftStore {
	return &DraftStore{db: db}
}

// SaveDraft stores the draft and returns its reference.
func (s *DraftStore) SaveDraft(ctx context.Context, draft *models.Draft) (string, error) {
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(draft).Error; err != nil {
		return "", fmt.Errorf("failed to save draft: %w", err)
	}
	return draft.ID, nil
}

func (s *DraftStore) DraftsForItem(ctx context.Context, itemID string) ([]models.Draft, error) {
	var drafts []models.Draft
	if err := s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}
	return drafts, nil
}
