package thoughts

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	langchainprompts "github.com/tmc/langchaingo/prompts"

	"github.com/lisanmuaddib/triage-agent/internal/personality/traits"
	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	prompts "github.com/lisanmuaddib/triage-agent/pkg/prompts/templates"
)

const DefaultDraftLength = 280

// DraftSaver stores a generated draft and returns its reference.
type DraftSaver interface {
	SaveDraft(ctx context.Context, draft *models.Draft) (string, error)
}

// AccountLookup resolves an item's account for its handle.
type AccountLookup interface {
	GetAccount(ctx context.Context, accountID string) (*models.WatchedAccount, error)
}

// DraftGeneratorConfig holds configuration for draft generation
type DraftGeneratorConfig struct {
	MaxLength   int
	Temperature float64
	Logger      *logrus.Logger
}

// DraftGenerator writes a reaction to an approved item in the account's tone.
type DraftGenerator struct {
	llm      llms.Model
	prompt   langchainprompts.PromptTemplate
	drafts   DraftSaver
	accounts AccountLookup
	config   DraftGeneratorConfig
	logger   *logrus.Logger
}

func NewDraftGenerator(llm llms.Model, drafts DraftSaver, accounts AccountLookup, config DraftGeneratorConfig) *DraftGenerator {
	if config.MaxLength <= 0 {
		config.MaxLength = DefaultDraftLength
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &DraftGenerator{
		llm:      llm,
		prompt:   prompts.NewDraftPrompt(),
		drafts:   drafts,
		accounts: accounts,
		config:   config,
		logger:   config.Logger,
	}
}

// Generate creates and stores a draft for item, returning the draft reference.
func (g *DraftGenerator) Generate(ctx context.Context, item models.Item, cfg models.AccountConfig) (string, error) {
	author := "unknown"
	if g.accounts != nil {
		if acct, err := g.accounts.GetAccount(ctx, item.AccountID); err == nil && acct.Handle != "" {
			author = acct.Handle
		}
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}

	formattedPrompt, err := g.prompt.Format(map[string]any{
		"tone":      traits.FormatTone(cfg.Tone),
		"language":  language,
		"maxLength": g.config.MaxLength,
		"author":    author,
		"post":      item.Text,
	})
	if err != nil {
		return "", fmt.Errorf("error formatting draft prompt: %w", err)
	}

	text, err := g.llm.Call(ctx, formattedPrompt,
		llms.WithTemperature(g.config.Temperature),
		llms.WithMaxTokens(g.config.MaxLength),
	)
	if err != nil {
		return "", fmt.Errorf("error generating draft: %w", err)
	}
	text = strings.Trim(strings.TrimSpace(text), `"`)
	if text == "" {
		return "", fmt.Errorf("model returned an empty draft for item %s", item.ID)
	}

	ref, err := g.drafts.SaveDraft(ctx, &models.Draft{
		ItemID:     item.ID,
		OperatorID: item.OperatorID,
		Text:       text,
		Tone:       cfg.Tone,
		Language:   language,
	})
	if err != nil {
		return "", err
	}

	g.logger.WithFields(logrus.Fields{
		"item_id":  item.ID,
		"draft_id": ref,
		"length":   len([]rune(text)),
	}).Info("Draft generated")

	return ref, nil
}
