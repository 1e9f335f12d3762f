package memory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/memory"
)

var _ = Describe("AccountStore", func() {
	var (
		store  *memory.AccountStore
		drafts *memory.DraftStore
		ctx    context.Context
	)

	BeforeEach(func() {
		logger := newTestLogger()
		database := newTestDB(logger)
		store = memory.NewAccountStore(logger, database)
		drafts = memory.NewDraftStore(database)
		ctx = context.Background()
	})

	watch := func(userID, operatorID string) *models.WatchedAccount {
		acct, err := store.Watch(ctx, &models.WatchedAccount{
			PlatformUserID: userID,
			Handle:         "user" + userID,
			OperatorID:     operatorID,
		})
		Expect(err).NotTo(HaveOccurred())
		return acct
	}

	Describe("Watch", func() {
		It("applies the default config and an empty buffer", func() {
			acct := watch("100", "op-1")
			Expect(acct.ID).NotTo(BeEmpty())
			Expect(acct.Config).To(Equal(models.DefaultAccountConfig()))
			Expect(acct.LastSeenID).To(BeNil())
			Expect(acct.Buffer()).To(BeEmpty())
		})

		It("returns the existing record when watched twice", func() {
			first := watch("100", "op-1")
			second := watch("100", "op-1")
			Expect(second.ID).To(Equal(first.ID))

			accounts, err := store.WatchedAccounts(ctx, "op-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(1))
		})

		It("lets two operators watch the same platform account", func() {
			watch("100", "op-1")
			watch("100", "op-2")

			ops, err := store.OperatorIDs(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ops).To(Equal([]string{"op-1", "op-2"}))
		})

		It("validates the supplied config", func() {
			_, err := store.Watch(ctx, &models.WatchedAccount{
				PlatformUserID: "100",
				OperatorID:     "op-1",
				Config:         models.AccountConfig{RelevanceThreshold: 12},
			})
			Expect(err).To(HaveOccurred())
		})

		It("requires a user and operator", func() {
			_, err := store.Watch(ctx, &models.WatchedAccount{PlatformUserID: "100"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("UpdateAccount", func() {
		It("stores the cursor and thread buffer", func() {
			acct := watch("100", "op-1")

			buffer := models.ThreadBuffer{}
			buffer.Append("conv-1", "201")
			buffer.Append("conv-1", "202")
			Expect(store.UpdateAccount(ctx, acct.ID, models.AccountUpdate{
				LastSeenID:   ptr("202"),
				ThreadBuffer: buffer,
			})).To(Succeed())

			reloaded, err := store.GetAccount(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*reloaded.LastSeenID).To(Equal("202"))
			Expect(reloaded.Buffer()["conv-1"].ItemIDs).To(Equal([]string{"201", "202"}))
		})

		It("leaves nil fields untouched", func() {
			acct := watch("100", "op-1")
			Expect(store.UpdateAccount(ctx, acct.ID, models.AccountUpdate{LastSeenID: ptr("5")})).To(Succeed())
			Expect(store.UpdateAccount(ctx, acct.ID, models.AccountUpdate{ThreadBuffer: models.ThreadBuffer{}})).To(Succeed())

			reloaded, err := store.GetAccount(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*reloaded.LastSeenID).To(Equal("5"))
		})

		It("reports unknown accounts", func() {
			err := store.UpdateAccount(ctx, "nope", models.AccountUpdate{LastSeenID: ptr("1")})
			Expect(err).To(MatchError(memory.ErrNotFound))
		})
	})

	Describe("UpdateConfig", func() {
		It("replaces the config after validation", func() {
			acct := watch("100", "op-1")
			cfg := models.AccountConfig{RelevanceThreshold: 8, AutoApprove: true, BatchPageSize: 3, Tone: "witty", Language: "de"}
			Expect(store.UpdateConfig(ctx, acct.ID, cfg)).To(Succeed())

			reloaded, err := store.GetAccount(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Config).To(Equal(cfg))

			Expect(store.UpdateConfig(ctx, acct.ID, models.AccountConfig{RelevanceThreshold: 0})).NotTo(Succeed())
		})
	})

	Describe("Unwatch", func() {
		It("only removes the operator's own account", func() {
			acct := watch("100", "op-1")
			Expect(store.Unwatch(ctx, "op-2", acct.ID)).To(MatchError(memory.ErrNotFound))
			Expect(store.Unwatch(ctx, "op-1", acct.ID)).To(Succeed())

			_, err := store.GetAccount(ctx, acct.ID)
			Expect(err).To(MatchError(memory.ErrNotFound))
		})
	})

	Describe("DraftStore", func() {
		It("saves drafts and lists them per item", func() {
			ref, err := drafts.SaveDraft(ctx, &models.Draft{ItemID: "i1", OperatorID: "op-1", Text: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ref).NotTo(BeEmpty())

			saved, err := drafts.DraftsForItem(ctx, "i1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(HaveLen(1))
			Expect(saved[0].ID).To(Equal(ref))
			Expect(saved[0].Text).To(Equal("hello"))
		})
	})
})
