package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

// NotifyOutcome reports one notification pass.
type NotifyOutcome struct {
	Skipped   int
	Notified  int
	MessageID string
}

// BatchNotifier sends one combined notification per operator per cycle. Items below
// their account's threshold are skipped instead of shown.
type BatchNotifier struct {
	notifier Notifier
	items    ItemStore
	logger   *logrus.Logger
}

func NewBatchNotifier(notifier Notifier, items ItemStore, logger *logrus.Logger) *BatchNotifier {
	return &BatchNotifier{
		notifier: notifier,
		items:    items,
		logger:   logger,
	}
}

func (n *BatchNotifier) Run(ctx context.Context, operatorID string, accounts map[string]models.WatchedAccount) (NotifyOutcome, error) {
	var out NotifyOutcome
	log := n.logger.WithField("operator_id", operatorID)

	scored, err := n.items.ItemsByStatus(ctx, operatorID, models.StatusScored, 0)
	if err != nil {
		return out, err
	}

	var below []string
	eligible := make([]models.Item, 0, len(scored))
	for _, item := range scored {
		if item.Notified() {
			continue
		}
		if item.Score() < configFor(accounts, item.AccountID).RelevanceThreshold {
			below = append(below, item.ID)
			continue
		}
		eligible = append(eligible, item)
	}

	if len(below) > 0 {
		skipped, err := n.items.TransitionItems(ctx, below, models.StatusSkipped)
		if err != nil {
			return out, err
		}
		out.Skipped = int(skipped)
		metrics.ItemsSkipped.Add(float64(skipped))
	}

	if len(eligible) == 0 {
		return out, nil
	}

	SortForNotification(eligible)
	pageSize := configFor(accounts, eligible[0].AccountID).PageSize()
	page := RenderPage(eligible, 1, pageSize, handlesOf(accounts))

	messageID, err := n.notifier.Send(ctx, operatorID, page)
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		return out, fmt.Errorf("failed to send notification: %w", err)
	}
	metrics.Notifications.WithLabelValues("sent").Inc()

	ids := make([]string, 0, len(eligible))
	for _, item := range eligible {
		ids = append(ids, item.ID)
	}

	marked, err := n.items.MarkNotified(ctx, ids, messageID)
	if err != nil {
		return out, fmt.Errorf("notification %s sent but items not marked: %w", messageID, err)
	}
	out.Notified = int(marked)
	out.MessageID = messageID

	log.WithFields(logrus.Fields{
		"message_id":  messageID,
		"notified":    out.Notified,
		"total_pages": page.TotalPages,
	}).Info("Sent batch notification")

	return out, nil
}

// configFor falls back to the defaults for items whose account is no longer watched.
func configFor(accounts map[string]models.WatchedAccount, accountID string) models.AccountConfig {
	if acct, ok := accounts[accountID]; ok {
		return acct.Config
	}
	return models.DefaultAccountConfig()
}

func handlesOf(accounts map[string]models.WatchedAccount) map[string]string {
	out := make(map[string]string, len(accounts))
	for id, acct := range accounts {
		out[id] = acct.Handle
	}
	return out
}
