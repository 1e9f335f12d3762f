package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CycleReport is the per-stage outcome of one operator cycle.
type CycleReport struct {
	CycleID    string
	OperatorID string
	StartedAt  time.Time
	Duration   time.Duration

	// LockHeld is set when another cycle for the operator was already running.
	LockHeld bool

	AccountsWatched  int
	AccountsPolled   int
	AccountFailures  int
	Baselined        int
	Fetched          int
	Discarded        int
	Buffered         int
	ThreadsCompleted int
	ThreadsAbandoned int

	Score     ScoreOutcome
	Approve   AutoApproveOutcome
	Notify    NotifyOutcome
	StageErrs map[string]error
}

func (r *CycleReport) fail(stage string, err error) {
	if r.StageErrs == nil {
		r.StageErrs = make(map[string]error)
	}
	r.StageErrs[stage] = err
}

// Outcome summarizes the report in one word for metrics.
func (r CycleReport) Outcome() string {
	switch {
	case r.LockHeld:
		return "locked"
	case len(r.StageErrs) > 0:
		return "partial"
	default:
		return "ok"
	}
}

// Fields flattens the report for structured logging.
func (r CycleReport) Fields() logrus.Fields {
	fields := logrus.Fields{
		"cycle_id":          r.CycleID,
		"operator_id":       r.OperatorID,
		"duration":          r.Duration.String(),
		"outcome":           r.Outcome(),
		"accounts_watched":  r.AccountsWatched,
		"accounts_polled":   r.AccountsPolled,
		"account_failures":  r.AccountFailures,
		"baselined":         r.Baselined,
		"fetched":           r.Fetched,
		"discarded":         r.Discarded,
		"buffered":          r.Buffered,
		"threads_completed": r.ThreadsCompleted,
		"threads_abandoned": r.ThreadsAbandoned,
		"pooled":            r.Score.Pooled,
		"retried":           r.Score.Retried,
		"scored":            r.Score.Scored,
		"auto_drafted":      r.Approve.Drafted,
		"auto_failed":       r.Approve.Failed,
		"skipped":           r.Notify.Skipped,
		"notified":          r.Notify.Notified,
	}
	for stage, err := range r.StageErrs {
		fields[stage+"_error"] = err.Error()
	}
	return fields
}
