package agent

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

// TaskType names a long-running agent task
type TaskType string

// Task is a unit of background work owned by the Agent
type Task interface {
	Run(ctx context.Context) error
	Stop()
	Type() TaskType
}

// CycleRunner runs one polling pass over every operator.
type CycleRunner interface {
	Run(ctx context.Context, now time.Time) []pipeline.CycleReport
}

// Agent runs the triage tasks until its context ends
type Agent struct {
	runner      CycleRunner
	logger      *logrus.Logger
	tasks       map[TaskType]Task
	tasksMu     sync.RWMutex
	taskConfigs map[TaskType]TaskConfig
}

// Config holds the configuration for the Agent
type Config struct {
	Runner CycleRunner
	Logger *logrus.Logger
	Tasks  map[TaskType]TaskConfig
}
