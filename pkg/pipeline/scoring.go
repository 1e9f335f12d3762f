package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

const DefaultMaxScoreBatch = 50

// ScoreOutcome reports one scoring pass.
type ScoreOutcome struct {
	Pooled  int
	Retried int
	Scored  int
}

// ScoringStage sends the cycle's pending pool to the scorer in one call. Pending items
// left behind by an earlier failed call are folded into the pool, so a scorer outage
// never strands items behind the advancing cursor.
type ScoringStage struct {
	scorer   Scorer
	items    ItemStore
	maxBatch int
	logger   *logrus.Logger
}

func NewScoringStage(scorer Scorer, items ItemStore, maxBatch int, logger *logrus.Logger) *ScoringStage {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxScoreBatch
	}
	return &ScoringStage{
		scorer:   scorer,
		items:    items,
		maxBatch: maxBatch,
		logger:   logger,
	}
}

func (s *ScoringStage) Run(ctx context.Context, operatorID string, pool *Pool, accounts map[string]models.WatchedAccount) (ScoreOutcome, error) {
	var out ScoreOutcome
	log := s.logger.WithField("operator_id", operatorID)

	leftover, err := s.items.ItemsByStatus(ctx, operatorID, models.StatusPending, s.maxBatch)
	if err != nil {
		log.WithError(err).Warn("Failed to load leftover pending items")
	}
	for _, item := range leftover {
		out.Retried += pool.Add(item.ID)
	}

	ids := pool.Take(s.maxBatch)
	if len(ids) == 0 {
		return out, nil
	}

	loaded, err := s.items.GetItems(ctx, ids)
	if err != nil {
		return out, err
	}

	batch := make([]models.Item, 0, len(loaded))
	for _, item := range loaded {
		if item.Status != models.StatusPending {
			continue
		}
		if acct, ok := accounts[item.AccountID]; !ok || !acct.Config.AnalyzeMedia {
			item.MediaRef = ""
		}
		batch = append(batch, item)
	}
	out.Pooled = len(batch)
	if len(batch) == 0 {
		return out, nil
	}

	results, err := s.scorer.ScoreBatch(ctx, batch)
	if err != nil {
		metrics.ScorerFailures.Inc()
		return out, fmt.Errorf("scoring batch of %d failed: %w", len(batch), err)
	}

	valid := acceptScores(results, batch)
	if dropped := len(results) - len(valid); dropped > 0 {
		log.WithField("dropped", dropped).Warn("Scorer returned unknown or out-of-range entries")
	}

	n, err := s.items.RecordScores(ctx, valid)
	if err != nil {
		return out, err
	}
	out.Scored = int(n)
	metrics.ItemsScored.Add(float64(n))

	log.WithFields(logrus.Fields{
		"pooled":  out.Pooled,
		"retried": out.Retried,
		"scored":  out.Scored,
	}).Info("Scored pending items")

	return out, nil
}

// acceptScores keeps the first in-range result for each item that was actually sent.
func acceptScores(results []models.ScoreResult, batch []models.Item) []models.ScoreResult {
	sent := make(map[string]struct{}, len(batch))
	for _, item := range batch {
		sent[item.ID] = struct{}{}
	}

	out := make([]models.ScoreResult, 0, len(results))
	for _, r := range results {
		if _, ok := sent[r.ID]; !ok {
			continue
		}
		if r.Score < 1 || r.Score > 10 {
			continue
		}
		delete(sent, r.ID)
		out = append(out, r)
	}
	return out
}
