package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

// AutoApproveOutcome reports one auto-approve pass.
type AutoApproveOutcome struct {
	Drafted int
	Failed  int
}

// AutoApprover drafts content directly for accounts that skip manual review. A failed
// generation leaves the item scored so the notifier surfaces it instead.
type AutoApprover struct {
	drafts DraftGenerator
	items  ItemStore
	logger *logrus.Logger
}

func NewAutoApprover(drafts DraftGenerator, items ItemStore, logger *logrus.Logger) *AutoApprover {
	return &AutoApprover{
		drafts: drafts,
		items:  items,
		logger: logger,
	}
}

func (a *AutoApprover) Run(ctx context.Context, operatorID string, accounts map[string]models.WatchedAccount) (AutoApproveOutcome, error) {
	var out AutoApproveOutcome
	if a.drafts == nil {
		return out, nil
	}

	scored, err := a.items.ItemsByStatus(ctx, operatorID, models.StatusScored, 0)
	if err != nil {
		return out, err
	}

	for _, item := range scored {
		acct, ok := accounts[item.AccountID]
		if !ok || !acct.Config.AutoApprove || item.Score() < acct.Config.RelevanceThreshold {
			continue
		}

		log := a.logger.WithFields(logrus.Fields{
			"item_id":    item.ID,
			"account_id": acct.ID,
			"score":      item.Score(),
		})

		ref, err := a.drafts.Generate(ctx, item, acct.Config)
		if err != nil {
			out.Failed++
			metrics.AutoApprovals.WithLabelValues("failed").Inc()
			log.WithError(err).Warn("Auto-approve generation failed, falling back to notification")
			continue
		}

		if err := a.items.MarkDrafted(ctx, item.ID, ref); err != nil {
			out.Failed++
			metrics.AutoApprovals.WithLabelValues("failed").Inc()
			log.WithError(err).Error("Failed to record auto-approved draft")
			continue
		}

		out.Drafted++
		metrics.AutoApprovals.WithLabelValues("drafted").Inc()
		log.WithField("draft_ref", ref).Info("Auto-approved item")
	}

	return out, nil
}
