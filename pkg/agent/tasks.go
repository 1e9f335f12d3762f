package agent

import (
	"fmt"
	"time"
)

// Default schedules for different tasks
const (
	DefaultPollSchedule = "@every 1m"
	DefaultPollTimeout  = 10 * time.Minute
)

// Task Types
const (
	TaskPoll TaskType = "poll" // Polls watched accounts and triages new items
)

// TaskPriority defines the importance level of a task
type TaskPriority int

const (
	PriorityLow TaskPriority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// TaskMetadata holds additional information about a task
type TaskMetadata struct {
	Description string
	Priority    TaskPriority
}

// TaskConfig holds configuration for a scheduled task
type TaskConfig struct {
	// Schedule is a cron expression or descriptor such as "@every 1m".
	Schedule string
	// Timeout bounds a single run.
	Timeout time.Duration
	// RunOnStart triggers one run immediately instead of waiting for the first tick.
	RunOnStart bool
	Enabled    bool
	Metadata   TaskMetadata
}

// DefaultTaskConfigs provides the default configuration for all supported tasks
var DefaultTaskConfigs = map[TaskType]TaskConfig{
	TaskPoll: {
		Enabled:    true,
		Schedule:   DefaultPollSchedule,
		Timeout:    DefaultPollTimeout,
		RunOnStart: true,
		Metadata: TaskMetadata{
			Description: "Polls watched accounts, scores new items and notifies operators",
			Priority:    PriorityHigh,
		},
	},
}

func IsTaskEnabled(configs map[TaskType]TaskConfig, taskType TaskType) bool {
	if config, exists := configs[taskType]; exists {
		return config.Enabled
	}
	return false
}

// ValidateTaskConfigs checks schedules parse and timeouts are positive
func ValidateTaskConfigs(configs map[TaskType]TaskConfig) error {
	for taskType, config := range configs {
		if !config.Enabled {
			continue
		}
		if _, err := ParseSchedule(config.Schedule); err != nil {
			return fmt.Errorf("task %s: %w", taskType, err)
		}
		if config.Timeout <= 0 {
			return fmt.Errorf("task %s: timeout must be positive", taskType)
		}
	}
	return nil
}
