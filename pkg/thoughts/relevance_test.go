package thoughts_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/thoughts"
)

var _ = Describe("ParseScores", func() {
	It("reads an array wrapped in a code fence", func() {
		reply := "Here you go:\n```json\n[{\"id\": \"a1\", \"score\": 8, \"reason\": \" on topic \"}]\n```"
		Expect(thoughts.ParseScores(reply)).To(Equal([]models.ScoreResult{
			{ID: "a1", Score: 8, Reason: "on topic"},
		}))
	})

	It("accepts bare numeric ids and rounds scores", func() {
		Expect(thoughts.ParseScores(`[{"id": 1234, "score": 7.6}]`)).To(Equal([]models.ScoreResult{
			{ID: "1234", Score: 8},
		}))
	})

	It("clamps scores into range", func() {
		results, err := thoughts.ParseScores(`[{"id": "a", "score": 0}, {"id": "b", "score": 14}]`)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Score).To(Equal(1))
		Expect(results[1].Score).To(Equal(10))
	})

	It("skips entries without an id", func() {
		results, err := thoughts.ParseScores(`[{"id": "", "score": 5}, {"score": 6}, {"id": "c", "score": 3}]`)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("c"))
	})

	It("rejects replies without an array", func() {
		_, err := thoughts.ParseScores("I cannot rate these posts.")
		Expect(err).To(MatchError(thoughts.ErrUnparseableScores))
	})

	It("rejects malformed arrays", func() {
		_, err := thoughts.ParseScores(`[{"id": "a", "score": }]`)
		Expect(errors.Is(err, thoughts.ErrUnparseableScores)).To(BeTrue())
	})
})

var _ = Describe("RelevanceScorer", func() {
	var (
		model  *fakeModel
		scorer *thoughts.RelevanceScorer
		items  []models.Item
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		model = &fakeModel{}
		scorer = thoughts.NewRelevanceScorer(model, thoughts.RelevanceScorerConfig{
			Criteria: []string{"Go releases", " database tooling "},
			Logger:   newTestLogger(),
		})
		items = []models.Item{
			{ID: "101", Text: "Go 1.30 is out"},
			{ID: "102", Text: "lunch photo", MediaRef: "https://img.example/lunch.jpg"},
		}
	})

	It("scores the whole batch in one call", func() {
		model.reply = `[{"id": "101", "score": 9, "reason": "release"}, {"id": "102", "score": 2, "reason": "food"}]`

		results, err := scorer.ScoreBatch(ctx, items)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(model.prompts).To(HaveLen(1))

		prompt := model.prompts[0]
		Expect(prompt).To(ContainSubstring("- Go releases\n- database tooling"))
		Expect(prompt).To(ContainSubstring("1. id=101\nGo 1.30 is out"))
		Expect(prompt).To(ContainSubstring("[media: https://img.example/lunch.jpg]"))
	})

	It("drops scores for ids outside the batch", func() {
		model.reply = `[{"id": "101", "score": 9}, {"id": "999", "score": 10}]`

		results, err := scorer.ScoreBatch(ctx, items)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(ConsistOf(models.ScoreResult{ID: "101", Score: 9}))
	})

	It("returns model failures", func() {
		model.err = errors.New("upstream down")

		_, err := scorer.ScoreBatch(ctx, items)
		Expect(err).To(MatchError(ContainSubstring("upstream down")))
	})

	It("returns parse failures", func() {
		model.reply = "no idea"

		_, err := scorer.ScoreBatch(ctx, items)
		Expect(err).To(MatchError(thoughts.ErrUnparseableScores))
	})

	It("does not call the model for an empty batch", func() {
		results, err := scorer.ScoreBatch(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
		Expect(model.prompts).To(BeEmpty())
	})
})
