package prompts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	prompts "github.com/lisanmuaddib/triage-agent/pkg/prompts/templates"
)

var _ = Describe("Relevance prompt", func() {
	It("renders criteria and entries", func() {
		out, err := prompts.NewRelevancePrompt().Format(map[string]any{
			"criteria": prompts.FormatCriteria(prompts.RelevancePromptConfig{Criteria: []string{"security"}}),
			"items": prompts.FormatScoringEntries([]prompts.ScoringEntry{
				{ID: "7", Author: "alice", Text: "patch now"},
			}),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Interests:\n- security\n"))
		Expect(out).To(ContainSubstring("Posts:\n1. id=7 author=@alice\npatch now\n"))
	})
})

var _ = Describe("FormatCriteria", func() {
	It("falls back to a generic interest", func() {
		Expect(prompts.FormatCriteria(prompts.RelevancePromptConfig{})).To(HavePrefix("- Anything"))
	})

	It("trims each criterion", func() {
		out := prompts.FormatCriteria(prompts.RelevancePromptConfig{Criteria: []string{" a ", "b"}})
		Expect(out).To(Equal("- a\n- b"))
	})
})

var _ = Describe("FormatScoringEntries", func() {
	It("numbers entries and notes media", func() {
		out := prompts.FormatScoringEntries([]prompts.ScoringEntry{
			{ID: "1", Text: "first"},
			{ID: "2", Text: "second", Media: "https://img.example/2.png"},
		})
		Expect(out).To(Equal("1. id=1\nfirst\n\n2. id=2\nsecond\n[media: https://img.example/2.png]"))
	})
})
