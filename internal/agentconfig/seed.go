package agentconfig

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

// Watcher adds accounts to a watch list.
type Watcher interface {
	Watch(ctx context.Context, account *models.WatchedAccount) (*models.WatchedAccount, error)
}

// UserResolver turns a handle into a platform user id.
type UserResolver func(ctx context.Context, handle string) (string, error)

// SeedAccounts watches every configured account. Seeds that fail to resolve are logged
// and skipped; the count of watched accounts is returned.
func SeedAccounts(ctx context.Context, watcher Watcher, resolve UserResolver, seeds []AccountSeed, logger *logrus.Logger) (int, error) {
	watched := 0
	for _, seed := range seeds {
		log := logger.WithFields(logrus.Fields{
			"handle":      seed.Handle,
			"operator_id": seed.OperatorID,
		})

		userID := seed.PlatformUserID
		if userID == "" {
			if resolve == nil {
				return watched, fmt.Errorf("account %s has no user id and no resolver is configured", seed.Handle)
			}
			id, err := resolve(ctx, seed.Handle)
			if err != nil {
				log.WithError(err).Warn("Failed to resolve account handle, skipping")
				continue
			}
			userID = id
		}

		account := &models.WatchedAccount{
			PlatformUserID: userID,
			OperatorID:     seed.OperatorID,
			Handle:         seed.Handle,
		}
		if seed.Config != nil {
			account.Config = *seed.Config
		}

		if _, err := watcher.Watch(ctx, account); err != nil {
			return watched, fmt.Errorf("failed to watch %s: %w", seed.Handle, err)
		}
		watched++
		log.WithField("account_id", account.ID).Debug("Watching account")
	}
	return watched, nil
}
