package prompts

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// RelevancePromptConfig holds what the scoring prompt is built from
type RelevancePromptConfig struct {
	// Criteria describes what the operator cares about, one bullet per entry.
	Criteria []string
}

// ScoringEntry is one item as presented to the scoring model.
type ScoringEntry struct {
	ID     string
	Author string
	Text   string
	Media  string
}

// NewRelevancePrompt creates the batch scoring template. It expects "criteria" and "items".
func NewRelevancePrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(
		`You triage social media posts for an operator. Rate how relevant each post is to the operator's interests.

Interests:
{{.criteria}}

Posts:
{{.items}}

Rules:
1. Score every post from 1 (irrelevant) to 10 (must see)
2. Give a one-sentence reason per post
3. Use each post id exactly as given
4. Respond with only a JSON array, no prose, in this shape:
[{"id": "<post id>", "score": <1-10>, "reason": "<why>"}]`,
		[]string{"criteria", "items"},
	)
}

// FormatCriteria renders the interest list as bullets, falling back to a generic line.
func FormatCriteria(config RelevancePromptConfig) string {
	if len(config.Criteria) == 0 {
		return "- Anything an operator of this account would want to react to"
	}
	var b strings.Builder
	for _, c := range config.Criteria {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(c))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatScoringEntries renders posts as numbered blocks keyed by id.
func FormatScoringEntries(entries []ScoringEntry) string {
	var b strings.Builder
	for i, e := range entries {
		b.WriteString(fmt.Sprintf("%d. id=%s", i+1, e.ID))
		if e.Author != "" {
			b.WriteString(" author=@" + e.Author)
		}
		b.WriteString("\n")
		b.WriteString(e.Text)
		b.WriteString("\n")
		if e.Media != "" {
			b.WriteString("[media: " + e.Media + "]\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewDraftPrompt creates the template for a draft reaction to an approved post.
// It expects "tone", "language", "maxLength", "author" and "post".
func NewDraftPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(
		`You write on behalf of an operator who wants to react to the post below.

Voice:
{{.tone}}

Post by @{{.author}}:
{{.post}}

Requirements:
1. Write in {{.language}}
2. Stay under {{.maxLength}} characters
3. Respond directly to the post's content
4. Output only the draft text

Draft:`,
		[]string{"tone", "language", "maxLength", "author", "post"},
	)
}
