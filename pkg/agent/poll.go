package agent

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PollTask runs the triage cycle on a cron schedule
type PollTask struct {
	runner    CycleRunner
	config    TaskConfig
	logger    *logrus.Logger
	scheduler *Scheduler
	stopped   chan struct{}
	stopOnce  sync.Once
	clock     func() time.Time
}

// NewPollTask creates a new PollTask instance
func NewPollTask(runner CycleRunner, config TaskConfig, logger *logrus.Logger) *PollTask {
	if logger == nil {
		logger = logrus.New()
	}
	if config.Schedule == "" {
		config.Schedule = DefaultPollSchedule
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultPollTimeout
	}

	return &PollTask{
		runner:    runner,
		config:    config,
		logger:    logger,
		scheduler: NewScheduler(logger),
		stopped:   make(chan struct{}),
		clock:     time.Now,
	}
}

// Run implements the Task interface
func (pt *PollTask) Run(ctx context.Context) error {
	log := pt.logger.WithField("task", TaskPoll)

	if err := pt.scheduler.AddJob(ctx, string(TaskPoll), pt.config.Schedule, pt.config.Timeout, pt.Poll); err != nil {
		return err
	}

	log.WithField("schedule", pt.config.Schedule).Info("Starting poll task")
	pt.scheduler.Start()

	var initial sync.WaitGroup
	if pt.config.RunOnStart {
		initial.Add(1)
		go func() {
			defer initial.Done()
			pt.scheduler.runJob(ctx, string(TaskPoll)+"_initial", pt.config.Timeout, pt.Poll)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info("Context cancelled, stopping poll task")
		err = ctx.Err()
	case <-pt.stopped:
		log.Info("Poll task stopped")
	}

	<-pt.scheduler.Stop().Done()
	initial.Wait()
	return err
}

// Poll runs one pass over every operator
func (pt *PollTask) Poll(ctx context.Context) error {
	reports := pt.runner.Run(ctx, pt.clock())

	failed := 0
	for _, r := range reports {
		if r.Outcome() == "partial" {
			failed++
		}
	}
	pt.logger.WithFields(logrus.Fields{
		"task":      TaskPoll,
		"operators": len(reports),
		"partial":   failed,
	}).Debug("Poll pass finished")

	return ctx.Err()
}

// Stop implements the Task interface
func (pt *PollTask) Stop() {
	pt.stopOnce.Do(func() {
		close(pt.stopped)
	})
}

// Type implements the Task interface
func (pt *PollTask) Type() TaskType {
	return TaskPoll
}
