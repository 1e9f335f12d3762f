package models_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

var _ = Describe("ItemStatus", func() {
	DescribeTable("CheckTransition",
		func(from, to models.ItemStatus, allowed bool) {
			err := models.CheckTransition(from, to)
			if allowed {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(models.ErrInvalidTransition))
			}
		},
		Entry("buffered to pending", models.StatusBuffered, models.StatusPending, true),
		Entry("buffered to skipped", models.StatusBuffered, models.StatusSkipped, true),
		Entry("pending to scored", models.StatusPending, models.StatusScored, true),
		Entry("scored to notified", models.StatusScored, models.StatusNotified, true),
		Entry("scored to drafted", models.StatusScored, models.StatusDrafted, true),
		Entry("notified to drafted", models.StatusNotified, models.StatusDrafted, true),
		Entry("scored back to pending", models.StatusScored, models.StatusPending, false),
		Entry("notified to skipped", models.StatusNotified, models.StatusSkipped, false),
		Entry("drafted to notified", models.StatusDrafted, models.StatusNotified, false),
		Entry("pending straight to notified", models.StatusPending, models.StatusNotified, false),
		Entry("unknown status", models.ItemStatus("archived"), models.StatusSkipped, false),
	)

	It("treats skipped and drafted as terminal", func() {
		Expect(models.StatusSkipped.Terminal()).To(BeTrue())
		Expect(models.StatusDrafted.Terminal()).To(BeTrue())
		Expect(models.StatusNotified.Terminal()).To(BeFalse())
		Expect(models.ItemStatus("bogus").Terminal()).To(BeFalse())
	})

	It("never ranks a successor below its predecessor", func() {
		for _, from := range models.AllStatuses {
			for _, to := range models.AllStatuses {
				if from.CanAdvanceTo(to) {
					Expect(to.Rank()).To(BeNumerically(">", from.Rank()), "%s -> %s", from, to)
				}
			}
		}
	})

	It("lists predecessors", func() {
		Expect(models.PredecessorsOf(models.StatusSkipped)).To(ConsistOf(
			models.StatusBuffered, models.StatusPending, models.StatusScored,
		))
		Expect(models.PredecessorsOf(models.StatusDrafted)).To(ConsistOf(
			models.StatusScored, models.StatusNotified,
		))
		Expect(models.PredecessorsOf(models.StatusBuffered)).To(BeEmpty())
	})
})
