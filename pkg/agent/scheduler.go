package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one scheduled run
type Job func(ctx context.Context) error

// Scheduler wraps cron so a run still in flight causes the next tick to be skipped
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]cron.EntryID
	logger *logrus.Logger
}

// ParseSchedule validates a cron expression or descriptor
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

func NewScheduler(logger *logrus.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		jobs:   make(map[string]cron.EntryID),
		logger: logger,
	}
}

// AddJob schedules job under name. Each run gets a context derived from parent and bounded by timeout.
func (s *Scheduler) AddJob(parent context.Context, name, schedule string, timeout time.Duration, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runJob(parent, name, timeout, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": schedule,
	}).Info("Added scheduled job")

	return nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, job Job) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.logger.WithField("job", name)
	start := time.Now()
	log.Debug("Starting job")

	if err := job(ctx); err != nil {
		log.WithError(err).Error("Job failed")
		return
	}
	log.WithField("duration", time.Since(start).String()).Debug("Job completed")
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// NextRun reports when the named job fires next.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	entryID, ok := s.jobs[name]
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Next, true
}
