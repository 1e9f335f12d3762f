package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

// AccountStore persists the watch list, cursors and thread buffers
type AccountStore struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	db     *gorm.DB
}

func NewAccountStore(logger *logrus.Logger, db *gorm.DB) *AccountStore {
	return &AccountStore{
		logger: logger,
		db:     db,
	}
}

// Watch adds an account to an operator's watch list. Watching the same platform user
// twice returns the existing record.
func (s *AccountStore) Watch(ctx context.Context, account *models.WatchedAccount) (*models.WatchedAccount, error) {
	if account.PlatformUserID == "" || account.OperatorID == "" {
		return nil, fmt.Errorf("platform user id and operator id are required")
	}
	if account.Config == (models.AccountConfig{}) {
		account.Config = models.DefaultAccountConfig()
	}
	if err := account.Config.Validate(); err != nil {
		return nil, err
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.ThreadBuffer.Data() == nil {
		account.ThreadBuffer = datatypes.NewJSONType(models.ThreadBuffer{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored models.WatchedAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform_user_id"}, {Name: "operator_id"}},
			DoNothing: true,
		}).Create(account).Error; err != nil {
			return fmt.Errorf("failed to watch account: %w", err)
		}
		return tx.Where("platform_user_id = ? AND operator_id = ?", account.PlatformUserID, account.OperatorID).
			First(&stored).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"account_id":  stored.ID,
		"handle":      stored.Handle,
		"operator_id": stored.OperatorID,
	}).Info("Watching account")

	return &stored, nil
}

// Unwatch removes an account from an operator's watch list.
func (s *AccountStore) Unwatch(ctx context.Context, operatorID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.WithContext(ctx).
		Where("id = ? AND operator_id = ?", accountID, operatorID).
		Delete(&models.WatchedAccount{})
	if result.Error != nil {
		return fmt.Errorf("failed to unwatch account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}

// GetAccount returns a watched account by id
func (s *AccountStore) GetAccount(ctx context.Context, accountID string) (*models.WatchedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var account models.WatchedAccount
	err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	return &account, nil
}

// WatchedAccounts returns an operator's watch list in a stable order.
func (s *AccountStore) WatchedAccounts(ctx context.Context, operatorID string) ([]models.WatchedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []models.WatchedAccount
	if err := s.db.WithContext(ctx).
		Where("operator_id = ?", operatorID).
		Order("id ASC").
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to load watched accounts: %w", err)
	}
	return accounts, nil
}

// OperatorIDs lists every operator with at least one watched account.
func (s *AccountStore) OperatorIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.WatchedAccount{}).
		Distinct("operator_id").
		Order("operator_id ASC").
		Pluck("operator_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	return ids, nil
}

// UpdateAccount writes the poller-owned fields of an account.
func (s *AccountStore) UpdateAccount(ctx context.Context, accountID string, update models.AccountUpdate) error {
	fields := map[string]interface{}{}
	if update.LastSeenID != nil {
		fields["last_seen_id"] = *update.LastSeenID
	}
	if update.ThreadBuffer != nil {
		fields["thread_buffer"] = datatypes.NewJSONType(update.ThreadBuffer)
	}
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.WithContext(ctx).Model(&models.WatchedAccount{}).
		Where("id = ?", accountID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update account %s: %w", accountID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}

// UpdateConfig replaces an account's triage configuration.
func (s *AccountStore) UpdateConfig(ctx context.Context, accountID string, cfg models.AccountConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.WithContext(ctx).Model(&models.WatchedAccount{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"cfg_relevance_threshold": cfg.RelevanceThreshold,
			"cfg_auto_approve":        cfg.AutoApprove,
			"cfg_batch_page_size":     cfg.BatchPageSize,
			"cfg_analyze_media":       cfg.AnalyzeMedia,
			"cfg_tone":                cfg.Tone,
			"cfg_language":            cfg.Language,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update account config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return nil
}
