package actions_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/actions"
)

var _ = Describe("Dispatcher", func() {
	var (
		approver   *fakeApprover
		shower     *fakeShower
		dispatcher *actions.Dispatcher
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		approver = &fakeApprover{}
		shower = &fakeShower{}
		logger := logrus.New()
		logger.SetOutput(GinkgoWriter)
		dispatcher = actions.NewDispatcher(logger,
			actions.NewApproveAction(approver),
			actions.NewPageAction(shower),
		)
	})

	It("approves the item named in the callback", func() {
		res, err := dispatcher.Handle(ctx, actions.Callback{OperatorID: "op-1", Data: "approve:101"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.DraftRef).To(Equal("draft-101"))
		Expect(res.Notice).To(Equal("Draft created"))
		Expect(approver.approved).To(Equal([]string{"101"}))
		Expect(approver.operators).To(Equal([]string{"op-1"}))
	})

	It("re-renders the requested page", func() {
		res, err := dispatcher.Handle(ctx, actions.Callback{OperatorID: "op-1", MessageID: "msg-1", Data: "page:2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Notice).To(Equal("Page 2/3"))
		Expect(res.Page).NotTo(BeNil())
		Expect(shower.requests).To(Equal([]pageRequest{{"op-1", "msg-1", 2}}))
	})

	DescribeTable("rejects malformed callbacks",
		func(data string, unknown bool) {
			_, err := dispatcher.Handle(ctx, actions.Callback{OperatorID: "op-1", Data: data})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, actions.ErrUnknownAction)).To(Equal(unknown))
		},
		Entry("no verb separator", "approve", true),
		Entry("unregistered verb", "publish:101", true),
		Entry("missing item id", "approve:", false),
		Entry("non-numeric page", "page:two", false),
	)

	It("passes action failures through", func() {
		approver.err = errors.New("model down")
		_, err := dispatcher.Handle(ctx, actions.Callback{OperatorID: "op-1", Data: "approve:101"})
		Expect(err).To(MatchError("model down"))
	})
})
