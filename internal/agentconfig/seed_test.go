package agentconfig_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/internal/agentconfig"
	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

type fakeWatcher struct {
	watched []models.WatchedAccount
	err     error
}

func (w *fakeWatcher) Watch(_ context.Context, account *models.WatchedAccount) (*models.WatchedAccount, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.watched = append(w.watched, *account)
	return account, nil
}

var _ = Describe("SeedAccounts", func() {
	var (
		watcher *fakeWatcher
		logger  *logrus.Logger
		ctx     context.Context
		resolve agentconfig.UserResolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		watcher = &fakeWatcher{}
		logger = logrus.New()
		logger.SetOutput(GinkgoWriter)
		resolve = func(_ context.Context, handle string) (string, error) {
			if handle == "ghost" {
				return "", errors.New("no such user")
			}
			return "id-" + handle, nil
		}
	})

	It("resolves handles and applies seed configs", func() {
		seeds := []agentconfig.AccountSeed{
			{Handle: "alice", OperatorID: "op-1", Config: &models.AccountConfig{RelevanceThreshold: 9}},
			{Handle: "bob", PlatformUserID: "77", OperatorID: "op-1"},
		}

		n, err := agentconfig.SeedAccounts(ctx, watcher, resolve, seeds, logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		Expect(watcher.watched[0].PlatformUserID).To(Equal("id-alice"))
		Expect(watcher.watched[0].Config.RelevanceThreshold).To(Equal(9))
		Expect(watcher.watched[1].PlatformUserID).To(Equal("77"))
	})

	It("skips handles that do not resolve", func() {
		seeds := []agentconfig.AccountSeed{
			{Handle: "ghost", OperatorID: "op-1"},
			{Handle: "alice", OperatorID: "op-1"},
		}

		n, err := agentconfig.SeedAccounts(ctx, watcher, resolve, seeds, logger)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(watcher.watched[0].Handle).To(Equal("alice"))
	})

	It("needs a resolver for seeds without a user id", func() {
		_, err := agentconfig.SeedAccounts(ctx, watcher, nil, []agentconfig.AccountSeed{{Handle: "alice", OperatorID: "op-1"}}, logger)
		Expect(err).To(MatchError(ContainSubstring("no resolver")))
	})

	It("stops on storage failures", func() {
		watcher.err = errors.New("db down")

		n, err := agentconfig.SeedAccounts(ctx, watcher, resolve, []agentconfig.AccountSeed{{PlatformUserID: "1", OperatorID: "op-1"}}, logger)
		Expect(err).To(MatchError(ContainSubstring("db down")))
		Expect(n).To(BeZero())
	})
})
