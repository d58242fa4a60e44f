// Package jobs runs periodic maintenance tasks on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrUnknownTask = errors.New("unknown task")

// Task is one maintenance operation
type Task struct {
	Name     string
	Schedule string // cron spec or @every descriptor
	Run      func(ctx context.Context) error
}

// Result records the last run of a task
type Result struct {
	Task     string        `json:"task"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	RanAt    time.Time     `json:"ran_at"`
}

// Scheduler runs registered tasks on their schedules
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu    sync.Mutex
	ctx   context.Context
	tasks map[string]Task
	last  map[string]Result
}

// NewScheduler creates a scheduler. Panicking tasks are recovered and logged.
func NewScheduler(logger *slog.Logger) *Scheduler {
	cronLogger := slogAdapter{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
		ctx:    context.Background(),
		tasks:  make(map[string]Task),
		last:   make(map[string]Result),
	}
}

// Add registers a task
func (s *Scheduler) Add(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("task %q already registered", task.Name)
	}
	if _, err := s.cron.AddFunc(task.Schedule, func() {
		s.run(s.context(), task)
	}); err != nil {
		return fmt.Errorf("invalid schedule for task %q: %w", task.Name, err)
	}
	s.tasks[task.Name] = task
	return nil
}

// Start begins running tasks until ctx is canceled
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	s.mu.Unlock()

	sort.Strings(names)
	s.logger.Info("maintenance scheduler starting", "tasks", names)
	s.cron.Start()
}

// Stop stops scheduling and waits for running tasks up to timeout
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("maintenance scheduler stopped")
	case <-time.After(timeout):
		s.logger.Warn("maintenance scheduler stop timed out", "timeout", timeout)
	}
}

// RunNow executes a registered task immediately
func (s *Scheduler) RunNow(ctx context.Context, name string) (Result, error) {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.run(ctx, task), nil
}

// LastResults returns the most recent result of each task that has run
func (s *Scheduler) LastResults() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]Result, 0, len(s.last))
	for _, r := range s.last {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Task < results[j].Task })
	return results
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) run(ctx context.Context, task Task) Result {
	start := time.Now()
	err := task.Run(ctx)

	result := Result{
		Task:     task.Name,
		Success:  err == nil,
		Duration: time.Since(start),
		RanAt:    start.UTC(),
	}
	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("maintenance task failed", "task", task.Name, "error", err, "duration", result.Duration)
	} else {
		s.logger.Debug("maintenance task completed", "task", task.Name, "duration", result.Duration)
	}

	s.mu.Lock()
	s.last[task.Name] = result
	s.mu.Unlock()
	return result
}

// slogAdapter satisfies cron.Logger
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
