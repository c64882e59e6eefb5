// Package scheduler runs the periodic maintenance jobs of the service. Jobs
// only touch operational state (rate limiter buckets, log files, health
// logging); the catalog is never modified after startup.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/anesdose/interfaces"
	"github.com/giygas/anesdose/logging"
	"github.com/giygas/anesdose/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// ErrUnknownJob is returned by RunNow for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is one periodic task.
type Job struct {
	Name  string
	Every time.Duration
	Run   func() error
}

// Scheduler wraps a gocron scheduler with logging and metrics per run.
type Scheduler struct {
	mu        sync.Mutex
	jobs      []Job
	scheduler *gocron.Scheduler
	started   bool
}

// NewScheduler creates a scheduler for jobs. Nothing runs until Start.
func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:      jobs,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start registers every job and starts the scheduler in the background.
// The first run of each job happens one interval after Start.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	for _, job := range s.jobs {
		if job.Name == "" || job.Run == nil {
			return fmt.Errorf("invalid job %q: name and run function are required", job.Name)
		}
		if job.Every <= 0 {
			return fmt.Errorf("invalid job %q: interval must be positive", job.Name)
		}

		_, err := s.scheduler.Every(job.Every).Tag(job.Name).SingletonMode().WaitForSchedule().Do(s.runner(job))
		if err != nil {
			logging.Error("Failed to schedule job", "job", job.Name, "error", err)
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
	}

	s.scheduler.StartAsync()
	s.started = true
	logging.Info("Scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop stops the scheduler. Running jobs are allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.scheduler.Stop()
	s.started = false
}

// RunNow runs the named job synchronously.
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return s.run(job)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name
	}
	return names
}

func (s *Scheduler) runner(job Job) func() {
	return func() {
		_ = s.run(job)
	}
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	err := job.Run()
	if err != nil {
		metrics.ScheduledJobRunsTotal.WithLabelValues(job.Name, "error").Inc()
		logging.Error("Scheduled job failed", "job", job.Name, "error", err)
		return err
	}

	metrics.ScheduledJobRunsTotal.WithLabelValues(job.Name, "success").Inc()
	logging.Debug("Scheduled job completed", "job", job.Name, "duration", time.Since(start).String())
	return nil
}
