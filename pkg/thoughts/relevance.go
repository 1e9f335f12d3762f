package thoughts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	langchainprompts "github.com/tmc/langchaingo/prompts"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	prompts "github.com/lisanmuaddib/triage-agent/pkg/prompts/templates"
)

// ErrUnparseableScores is returned when the model reply holds no JSON array.
var ErrUnparseableScores = errors.New("model reply contains no score array")

// RelevanceScorerConfig holds configuration for batch scoring
type RelevanceScorerConfig struct {
	Criteria    []string
	Temperature float64
	MaxTokens   int
	Logger      *logrus.Logger
}

// RelevanceScorer rates a whole batch of items with one model call.
type RelevanceScorer struct {
	llm    llms.Model
	prompt langchainprompts.PromptTemplate
	config RelevanceScorerConfig
	logger *logrus.Logger
}

func NewRelevanceScorer(llm llms.Model, config RelevanceScorerConfig) *RelevanceScorer {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	return &RelevanceScorer{
		llm:    llm,
		prompt: prompts.NewRelevancePrompt(),
		config: config,
		logger: config.Logger,
	}
}

// ScoreBatch returns one result per item the model rated. Scores are clamped to 1-10 and
// ids the batch does not contain are dropped.
func (s *RelevanceScorer) ScoreBatch(ctx context.Context, items []models.Item) ([]models.ScoreResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	entries := make([]prompts.ScoringEntry, 0, len(items))
	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item.ID] = struct{}{}
		entries = append(entries, prompts.ScoringEntry{
			ID:    item.ID,
			Text:  item.Text,
			Media: item.MediaRef,
		})
	}

	formattedPrompt, err := s.prompt.Format(map[string]any{
		"criteria": prompts.FormatCriteria(prompts.RelevancePromptConfig{Criteria: s.config.Criteria}),
		"items":    prompts.FormatScoringEntries(entries),
	})
	if err != nil {
		return nil, fmt.Errorf("error formatting relevance prompt: %w", err)
	}

	reply, err := llms.GenerateFromSinglePrompt(ctx, s.llm, formattedPrompt,
		llms.WithTemperature(s.config.Temperature),
		llms.WithMaxTokens(s.config.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("error scoring batch: %w", err)
	}

	parsed, err := ParseScores(reply)
	if err != nil {
		s.logger.WithField("reply", truncate(reply, 500)).Warn("Could not parse scoring reply")
		return nil, err
	}

	results := make([]models.ScoreResult, 0, len(parsed))
	for _, r := range parsed {
		if _, ok := known[r.ID]; !ok {
			s.logger.WithField("item_id", r.ID).Debug("Ignoring score for unknown item")
			continue
		}
		results = append(results, r)
	}

	s.logger.WithFields(logrus.Fields{
		"batch":  len(items),
		"scored": len(results),
	}).Debug("Scored batch")

	return results, nil
}

type rawScore struct {
	ID     flexibleID `json:"id"`
	Score  float64    `json:"score"`
	Reason string     `json:"reason"`
}

// flexibleID accepts ids quoted or bare, since models drop the quotes on numeric ids.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	*f = flexibleID(string(b))
	return nil
}

// ParseScores extracts the JSON score array from a model reply, tolerating code fences
// and surrounding prose.
func ParseScores(reply string) ([]models.ScoreResult, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, ErrUnparseableScores
	}

	var raw []rawScore
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableScores, err)
	}

	results := make([]models.ScoreResult, 0, len(raw))
	for _, r := range raw {
		id := strings.TrimSpace(string(r.ID))
		if id == "" {
			continue
		}
		results = append(results, models.ScoreResult{
			ID:     id,
			Score:  clampScore(r.Score),
			Reason: strings.TrimSpace(r.Reason),
		})
	}
	return results, nil
}

func clampScore(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
