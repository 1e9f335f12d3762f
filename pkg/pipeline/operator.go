package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

var (
	// ErrUnknownBatch is returned when no item carries the requested notification id.
	ErrUnknownBatch = errors.New("unknown notification batch")
	// ErrUnknownItem is returned when an operator acts on an item it does not own.
	ErrUnknownItem = errors.New("unknown item")
)

// Navigator re-renders pages of an already sent notification. It only ever edits the
// existing message.
type Navigator struct {
	items    ItemStore
	accounts AccountStore
	notifier Notifier
	logger   *logrus.Logger
}

func NewNavigator(items ItemStore, accounts AccountStore, notifier Notifier, logger *logrus.Logger) *Navigator {
	return &Navigator{
		items:    items,
		accounts: accounts,
		notifier: notifier,
		logger:   logger,
	}
}

// ShowPage renders page of the operator's batch sent as messageID and edits the message in place.
func (n *Navigator) ShowPage(ctx context.Context, operatorID, messageID string, page int) (RenderedPage, error) {
	items, err := n.items.ItemsByBatchMessage(ctx, messageID)
	if err != nil {
		return RenderedPage{}, err
	}
	if len(items) == 0 || items[0].OperatorID != operatorID {
		return RenderedPage{}, fmt.Errorf("%w: %s", ErrUnknownBatch, messageID)
	}

	SortForNotification(items)

	watched, err := n.accounts.WatchedAccounts(ctx, operatorID)
	if err != nil {
		return RenderedPage{}, err
	}
	accounts := make(map[string]models.WatchedAccount, len(watched))
	for _, acct := range watched {
		accounts[acct.ID] = acct
	}

	pageSize := configFor(accounts, items[0].AccountID).PageSize()
	rendered := RenderPage(items, page, pageSize, handlesOf(accounts))

	if err := n.notifier.Edit(ctx, messageID, rendered); err != nil {
		return RenderedPage{}, fmt.Errorf("failed to edit notification %s: %w", messageID, err)
	}

	n.logger.WithFields(logrus.Fields{
		"message_id": messageID,
		"page":       rendered.Page,
	}).Debug("Rendered notification page")

	return rendered, nil
}

// Approver turns an item an operator picked from a notification into a draft.
type Approver struct {
	items    ItemStore
	accounts AccountStore
	drafts   DraftGenerator
	logger   *logrus.Logger
}

func NewApprover(items ItemStore, accounts AccountStore, drafts DraftGenerator, logger *logrus.Logger) *Approver {
	return &Approver{
		items:    items,
		accounts: accounts,
		drafts:   drafts,
		logger:   logger,
	}
}

// Approve generates a draft for the operator's item and returns the draft reference.
func (a *Approver) Approve(ctx context.Context, operatorID, itemID string) (string, error) {
	item, err := a.items.GetItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.OperatorID != operatorID {
		return "", fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if err := models.CheckTransition(item.Status, models.StatusDrafted); err != nil {
		return "", err
	}

	cfg := models.DefaultAccountConfig()
	if acct, err := a.accounts.GetAccount(ctx, item.AccountID); err == nil {
		cfg = acct.Config
	}

	ref, err := a.drafts.Generate(ctx, *item, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate draft: %w", err)
	}
	if err := a.items.MarkDrafted(ctx, item.ID, ref); err != nil {
		return "", err
	}

	a.logger.WithFields(logrus.Fields{
		"item_id":     item.ID,
		"operator_id": operatorID,
		"draft_ref":   ref,
	}).Info("Operator approved item")

	return ref, nil
}
