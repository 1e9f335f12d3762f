package thoughts_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/thoughts"
)

type fakeSaver struct {
	saved []models.Draft
	err   error
}

func (s *fakeSaver) SaveDraft(_ context.Context, draft *models.Draft) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, *draft)
	return "draft-1", nil
}

type fakeAccounts map[string]*models.WatchedAccount

func (f fakeAccounts) GetAccount(_ context.Context, id string) (*models.WatchedAccount, error) {
	if acct, ok := f[id]; ok {
		return acct, nil
	}
	return nil, errors.New("not found")
}

var _ = Describe("DraftGenerator", func() {
	var (
		model     *fakeModel
		saver     *fakeSaver
		generator *thoughts.DraftGenerator
		item      models.Item
		cfg       models.AccountConfig
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		model = &fakeModel{reply: `  "Congrats on shipping!"  `}
		saver = &fakeSaver{}
		accounts := fakeAccounts{"acct-1": {ID: "acct-1", Handle: "alice"}}
		generator = thoughts.NewDraftGenerator(model, saver, accounts, thoughts.DraftGeneratorConfig{
			Logger: newTestLogger(),
		})
		item = models.Item{ID: "101", AccountID: "acct-1", OperatorID: "op-1", Text: "We shipped v2"}
		cfg = models.AccountConfig{Tone: "friendly", Language: "es"}
	})

	It("stores the cleaned draft and returns its reference", func() {
		ref, err := generator.Generate(ctx, item, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(ref).To(Equal("draft-1"))

		Expect(saver.saved).To(HaveLen(1))
		draft := saver.saved[0]
		Expect(draft.ItemID).To(Equal("101"))
		Expect(draft.OperatorID).To(Equal("op-1"))
		Expect(draft.Text).To(Equal("Congrats on shipping!"))
		Expect(draft.Tone).To(Equal("friendly"))
		Expect(draft.Language).To(Equal("es"))
	})

	It("builds the prompt from the account and its settings", func() {
		_, err := generator.Generate(ctx, item, cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(model.prompts).To(HaveLen(1))
		prompt := model.prompts[0]
		Expect(prompt).To(ContainSubstring("Post by @alice:\nWe shipped v2"))
		Expect(prompt).To(ContainSubstring("Write in es"))
		Expect(prompt).To(ContainSubstring("Stay under 280 characters"))
		Expect(prompt).To(ContainSubstring("Warm and encouraging"))
	})

	It("defaults the author and language", func() {
		item.AccountID = "missing"
		cfg.Language = ""

		_, err := generator.Generate(ctx, item, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.prompts[0]).To(ContainSubstring("Post by @unknown:"))
		Expect(saver.saved[0].Language).To(Equal("en"))
	})

	It("rejects an empty reply", func() {
		model.reply = ` "" `

		_, err := generator.Generate(ctx, item, cfg)
		Expect(err).To(MatchError(ContainSubstring("empty draft")))
		Expect(saver.saved).To(BeEmpty())
	})

	It("returns model and storage failures", func() {
		model.err = errors.New("timeout")
		_, err := generator.Generate(ctx, item, cfg)
		Expect(err).To(MatchError(ContainSubstring("timeout")))

		model.err = nil
		saver.err = errors.New("disk full")
		_, err = generator.Generate(ctx, item, cfg)
		Expect(err).To(MatchError("disk full"))
	})
})
