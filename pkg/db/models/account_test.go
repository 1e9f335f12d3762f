package models_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/datatypes"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

var _ = Describe("AccountConfig", func() {
	It("defaults to threshold 6 and five items per page", func() {
		cfg := models.DefaultAccountConfig()
		Expect(cfg.RelevanceThreshold).To(Equal(6))
		Expect(cfg.PageSize()).To(Equal(5))
		Expect(cfg.AutoApprove).To(BeFalse())
		Expect(cfg.Validate()).To(Succeed())
	})

	It("falls back to the default page size", func() {
		Expect(models.AccountConfig{BatchPageSize: 0}.PageSize()).To(Equal(models.DefaultBatchPageSize))
		Expect(models.AccountConfig{BatchPageSize: 8}.PageSize()).To(Equal(8))
	})

	It("rejects thresholds outside 1-10", func() {
		Expect(models.AccountConfig{RelevanceThreshold: 0}.Validate()).NotTo(Succeed())
		Expect(models.AccountConfig{RelevanceThreshold: 11}.Validate()).NotTo(Succeed())
		Expect(models.AccountConfig{RelevanceThreshold: 10, BatchPageSize: -1}.Validate()).NotTo(Succeed())
	})
})

var _ = Describe("ThreadBuffer", func() {
	var buffer models.ThreadBuffer

	BeforeEach(func() {
		buffer = models.ThreadBuffer{}
	})

	It("appends parts in order and resets staleness", func() {
		buffer.Append("c1", "a")
		entry := buffer["c1"]
		entry.StaleCycles = 3
		buffer["c1"] = entry

		buffer.Append("c1", "b")
		Expect(buffer["c1"].ItemIDs).To(Equal([]string{"a", "b"}))
		Expect(buffer["c1"].StaleCycles).To(BeZero())
	})

	It("does not duplicate a part", func() {
		buffer.Append("c1", "a")
		buffer.Append("c1", "a")
		Expect(buffer["c1"].ItemIDs).To(HaveLen(1))
		Expect(buffer.Contains("a")).To(BeTrue())
		Expect(buffer.Contains("z")).To(BeFalse())
	})

	It("puts a late opening post first without duplicating it", func() {
		buffer.Append("c1", "b")
		buffer.Append("c1", "a")
		entry := buffer["c1"]
		entry.StaleCycles = 1
		buffer["c1"] = entry

		buffer.Prepend("c1", "a")
		Expect(buffer["c1"].ItemIDs).To(Equal([]string{"a", "b"}))
		Expect(buffer["c1"].StaleCycles).To(BeZero())
	})

	It("clones deeply", func() {
		buffer.Append("c1", "a")
		clone := buffer.Clone()
		clone.Append("c1", "b")
		Expect(buffer["c1"].ItemIDs).To(Equal([]string{"a"}))
	})

	It("returns a usable buffer from an account with no stored data", func() {
		var acct models.WatchedAccount
		Expect(acct.Buffer()).NotTo(BeNil())

		acct.ThreadBuffer = datatypes.NewJSONType(models.ThreadBuffer{"c2": {ItemIDs: []string{"x"}}})
		copied := acct.Buffer()
		copied.Append("c2", "y")
		Expect(acct.ThreadBuffer.Data()["c2"].ItemIDs).To(Equal([]string{"x"}))
	})

	It("sorts conversation ids", func() {
		buffer.Append("b", "1")
		buffer.Append("a", "2")
		Expect(buffer.ConversationIDs()).To(Equal([]string{"a", "b"}))
	})
})

var _ = Describe("Item", func() {
	It("reports zero score until scored", func() {
		Expect(models.Item{}.Score()).To(BeZero())
		score := 7
		Expect(models.Item{RelevanceScore: &score}.Score()).To(Equal(7))
	})

	It("is notified only with a message id", func() {
		empty := ""
		id := "m1"
		Expect(models.Item{}.Notified()).To(BeFalse())
		Expect(models.Item{BatchMessageID: &empty}.Notified()).To(BeFalse())
		Expect(models.Item{BatchMessageID: &id}.Notified()).To(BeTrue())
	})
})
