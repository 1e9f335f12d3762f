package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// New creates a new Agent instance
func New(config Config) (*Agent, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	// If no tasks are configured, use default configurations
	if len(config.Tasks) == 0 {
		config.Tasks = DefaultTaskConfigs
	}
	if err := ValidateTaskConfigs(config.Tasks); err != nil {
		return nil, err
	}

	agent := &Agent{
		runner:      config.Runner,
		logger:      config.Logger,
		tasks:       make(map[TaskType]Task),
		taskConfigs: config.Tasks,
	}

	// Initialize tasks
	if err := agent.initializeTasks(config.Tasks); err != nil {
		return nil, fmt.Errorf("failed to initialize tasks: %w", err)
	}

	return agent, nil
}

// Run starts all enabled agent tasks and blocks until they end
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("Starting agent with all enabled tasks")

	var wg sync.WaitGroup
	errChan := make(chan error, len(a.tasks))

	a.tasksMu.RLock()
	for taskType, task := range a.tasks {
		wg.Add(1)
		go func(t Task, tt TaskType) {
			defer wg.Done()
			a.logger.WithField("task", tt).Info("Starting task")

			if err := t.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.WithError(err).WithField("task", tt).Error("Task failed")
				errChan <- fmt.Errorf("task %s failed: %w", tt, err)
			}
		}(task, taskType)
	}
	a.tasksMu.RUnlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Context canceled, initiating shutdown")
		a.Stop()
		<-done
		return ctx.Err()
	case err := <-errChan:
		a.Stop()
		<-done
		return err
	case <-done:
		a.logger.Info("All tasks completed normally")
		return nil
	}
}

// Stop stops all running tasks
func (a *Agent) Stop() {
	a.tasksMu.RLock()
	defer a.tasksMu.RUnlock()

	for taskType, task := range a.tasks {
		a.logger.WithField("task", taskType).Info("Stopping task")
		task.Stop()
	}
}

// AddTask adds a new task to the agent
func (a *Agent) AddTask(task Task) error {
	a.tasksMu.Lock()
	defer a.tasksMu.Unlock()

	if _, exists := a.tasks[task.Type()]; exists {
		return fmt.Errorf("task %s already exists", task.Type())
	}

	a.tasks[task.Type()] = task
	return nil
}

// RemoveTask removes a task from the agent
func (a *Agent) RemoveTask(taskType TaskType) {
	a.tasksMu.Lock()
	defer a.tasksMu.Unlock()

	if task, exists := a.tasks[taskType]; exists {
		task.Stop()
		delete(a.tasks, taskType)
	}
}

// Tasks lists the registered task types.
func (a *Agent) Tasks() []TaskType {
	a.tasksMu.RLock()
	defer a.tasksMu.RUnlock()

	types := make([]TaskType, 0, len(a.tasks))
	for t := range a.tasks {
		types = append(types, t)
	}
	return types
}

func validateConfig(config *Config) error {
	if config.Runner == nil {
		return fmt.Errorf("cycle runner is required")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return nil
}

func (a *Agent) initializeTasks(taskConfigs map[TaskType]TaskConfig) error {
	for taskType, config := range taskConfigs {
		if !config.Enabled {
			continue
		}

		var task Task
		switch taskType {
		case TaskPoll:
			task = NewPollTask(a.runner, config, a.logger)
		default:
			return fmt.Errorf("unknown task type: %s", taskType)
		}

		if err := a.AddTask(task); err != nil {
			return err
		}
	}
	return nil
}
