package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/lock"
	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

const (
	DefaultAccountTimeout = 45 * time.Second
	DefaultConcurrency    = 4
)

// Config wires the poller's collaborators and limits.
type Config struct {
	Logger   *logrus.Logger
	Accounts AccountStore
	Items    ItemStore
	Feed     FeedClient
	Scorer   Scorer
	Drafts   DraftGenerator
	Notifier Notifier
	Locker   Locker

	ChunkSize      int
	Window         time.Duration
	AccountTimeout time.Duration
	Concurrency    int
	MaxScoreBatch  int
	Threads        ThreadConfig
}

func (c *Config) validate() error {
	switch {
	case c.Accounts == nil:
		return errors.New("account store is required")
	case c.Items == nil:
		return errors.New("item store is required")
	case c.Feed == nil:
		return errors.New("feed client is required")
	case c.Scorer == nil:
		return errors.New("scorer is required")
	case c.Notifier == nil:
		return errors.New("notifier is required")
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	if c.Locker == nil {
		c.Locker = lock.NewLocalLocker()
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.AccountTimeout <= 0 {
		c.AccountTimeout = DefaultAccountTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	return nil
}

// Poller runs the polling and triage cycle for every operator.
type Poller struct {
	cfg      Config
	logger   *logrus.Logger
	threads  *ThreadReconstructor
	scoring  *ScoringStage
	approver *AutoApprover
	notifier *BatchNotifier
}

func NewPoller(cfg Config) (*Poller, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid poller config: %w", err)
	}

	return &Poller{
		cfg:      cfg,
		logger:   cfg.Logger,
		threads:  NewThreadReconstructor(cfg.Feed, cfg.Items, cfg.Threads, cfg.Logger),
		scoring:  NewScoringStage(cfg.Scorer, cfg.Items, cfg.MaxScoreBatch, cfg.Logger),
		approver: NewAutoApprover(cfg.Drafts, cfg.Items, cfg.Logger),
		notifier: NewBatchNotifier(cfg.Notifier, cfg.Items, cfg.Logger),
	}, nil
}

// Run executes one cycle per operator. Failures are logged and reported, never returned.
func (p *Poller) Run(ctx context.Context, now time.Time) []CycleReport {
	operators, err := p.cfg.Accounts.OperatorIDs(ctx)
	if err != nil {
		p.logger.WithError(err).Error("Failed to list operators")
		metrics.Cycles.WithLabelValues("error").Inc()
		return nil
	}

	reports := make([]CycleReport, 0, len(operators))
	for _, op := range operators {
		if ctx.Err() != nil {
			p.logger.WithError(ctx.Err()).Warn("Stopping run before all operators were processed")
			break
		}
		reports = append(reports, p.RunCycle(ctx, op, now))
	}
	return reports
}

// RunCycle polls the operator's current chunk, then scores, auto-approves and notifies.
// The three cross-account stages start only after every account has settled.
func (p *Poller) RunCycle(ctx context.Context, operatorID string, now time.Time) (report CycleReport) {
	report = CycleReport{
		CycleID:    uuid.New().String(),
		OperatorID: operatorID,
		StartedAt:  now,
	}
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		p.finish(report, start)
	}()

	release, acquired, err := p.cfg.Locker.TryLock(ctx, "triage:operator:"+operatorID)
	if err != nil {
		report.fail("lock", err)
		return report
	}
	if !acquired {
		report.LockHeld = true
		return report
	}
	defer release()

	watched, err := p.cfg.Accounts.WatchedAccounts(ctx, operatorID)
	if err != nil {
		report.fail("accounts", err)
		return report
	}
	report.AccountsWatched = len(watched)

	accounts := make(map[string]models.WatchedAccount, len(watched))
	for _, acct := range watched {
		accounts[acct.ID] = acct
	}

	chunk := SelectChunk(watched, p.cfg.ChunkSize, p.cfg.Window, now)
	report.AccountsPolled = len(chunk)

	results := make([]accountResult, len(chunk))
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, acct := range chunk {
		i, acct := i, acct
		g.Go(func() error {
			results[i] = p.pollAccount(ctx, acct)
			return nil
		})
	}
	_ = g.Wait()

	pool := NewPool()
	for _, res := range results {
		report.Fetched += res.fetched
		report.Discarded += res.discarded
		report.Buffered += res.buffered
		report.ThreadsCompleted += res.completed
		report.ThreadsAbandoned += res.abandoned
		if res.baseline {
			report.Baselined++
		}
		if res.err != nil {
			report.AccountFailures++
		}
		pool.Add(res.pending...)
	}

	if report.Score, err = p.scoring.Run(ctx, operatorID, pool, accounts); err != nil {
		report.fail("score", err)
	}
	if report.Approve, err = p.approver.Run(ctx, operatorID, accounts); err != nil {
		report.fail("auto_approve", err)
	}
	if report.Notify, err = p.notifier.Run(ctx, operatorID, accounts); err != nil {
		report.fail("notify", err)
	}

	return report
}

type accountResult struct {
	pending   []string
	fetched   int
	discarded int
	buffered  int
	completed int
	abandoned int
	baseline  bool
	err       error
}

// pollAccount fetches, buffers and sweeps one account under its own deadline. Any error
// leaves the account with no new items this cycle.
func (p *Poller) pollAccount(ctx context.Context, acct models.WatchedAccount) accountResult {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.AccountTimeout)
	defer cancel()

	log := p.logger.WithFields(logrus.Fields{
		"account_id":  acct.ID,
		"handle":      acct.Handle,
		"operator_id": acct.OperatorID,
	})

	var res accountResult

	cursor := ""
	if acct.LastSeenID != nil {
		cursor = *acct.LastSeenID
	}

	fetched, err := p.cfg.Feed.FetchNew(ctx, acct.PlatformUserID, acct.Handle, cursor)
	if err != nil {
		res.err = err
		metrics.AccountPolls.WithLabelValues("fetch_error").Inc()
		log.WithError(err).Warn("Failed to fetch account feed")
		return res
	}
	res.fetched = len(fetched.Items)

	if acct.LastSeenID == nil {
		res.baseline = true
		if fetched.NewestID != "" {
			newest := fetched.NewestID
			if err := p.cfg.Accounts.UpdateAccount(ctx, acct.ID, models.AccountUpdate{LastSeenID: &newest}); err != nil {
				res.err = err
				log.WithError(err).Error("Failed to store baseline cursor")
			}
		}
		metrics.AccountPolls.WithLabelValues("baseline").Inc()
		log.WithField("cursor", fetched.NewestID).Info("Baselined new account")
		return res
	}

	buffer := acct.Buffer()
	ingest, err := p.threads.Ingest(ctx, acct, buffer, fetched.Items)
	res.pending = append(res.pending, ingest.Pending...)
	res.discarded = ingest.Discarded
	res.buffered = ingest.Buffered
	if err != nil {
		res.err = err
		metrics.AccountPolls.WithLabelValues("store_error").Inc()
		log.WithError(err).Error("Failed to store fetched items")
		return res
	}

	sweep := p.threads.Sweep(ctx, acct, buffer, ingest.Touched)
	res.pending = append(res.pending, sweep.Completed...)
	res.completed = len(sweep.Completed) + sweep.Attached
	res.abandoned = sweep.Abandoned

	update := models.AccountUpdate{ThreadBuffer: buffer}
	if fetched.NewestID != "" {
		newest := fetched.NewestID
		update.LastSeenID = &newest
	}
	if err := p.cfg.Accounts.UpdateAccount(ctx, acct.ID, update); err != nil {
		res.err = err
		metrics.AccountPolls.WithLabelValues("store_error").Inc()
		log.WithError(err).Error("Failed to update account cursor")
		return res
	}

	metrics.AccountPolls.WithLabelValues("ok").Inc()
	log.WithFields(logrus.Fields{
		"fetched":  res.fetched,
		"pending":  len(res.pending),
		"buffered": res.buffered,
		"threads":  len(buffer),
	}).Debug("Polled account")

	return res
}

func (p *Poller) finish(report CycleReport, start time.Time) {
	metrics.Cycles.WithLabelValues(report.Outcome()).Inc()
	metrics.ObserveCycleDuration(start)

	entry := p.logger.WithFields(report.Fields())
	switch report.Outcome() {
	case "locked":
		entry.Warn("Skipped cycle, operator already being processed")
	case "partial":
		entry.Warn("Cycle finished with errors")
	default:
		entry.Info("Cycle finished")
	}
}
