// Package schedule repeats test runs at a fixed interval.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/go-co-op/gocron/v2"
)

// Job is one scheduled unit of work, typically a full test run.
type Job func(ctx context.Context) error

// Scheduler runs a Job every interval. Runs never overlap: a run that
// outlasts the interval delays the next one instead of racing it, since
// only one VPN session can exist at a time.
type Scheduler struct {
	scheduler gocron.Scheduler
	every     time.Duration
	job       Job
	log       log.Interface

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	handle  gocron.Job
}

// NewScheduler creates a new scheduler for job.
func NewScheduler(every time.Duration, job Job, logger log.Interface) (*Scheduler, error) {
	if every <= 0 {
		return nil, fmt.Errorf("schedule interval must be positive, got %s", every)
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		every:     every,
		job:       job,
		log:       logger,
	}, nil
}

// Start schedules the job, running it once immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	jobCtx, cancel := context.WithCancel(ctx)
	handle, err := s.scheduler.NewJob(
		gocron.DurationJob(s.every),
		gocron.NewTask(func() {
			s.runJob(jobCtx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create test job: %w", err)
	}

	s.scheduler.Start()
	s.running = true
	s.cancel = cancel
	s.handle = handle
	return nil
}

// Stop cancels a run in progress and stops the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is not running")
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	// Shutdown waits for a run in progress, which takes s.mu when it ends.
	cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait starts the scheduler and blocks until ctx is done, then stops it.
func (s *Scheduler) Wait(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

func (s *Scheduler) runJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.log.WithError(err).Error("Scheduled test run failed")
	} else {
		s.log.Infof("Scheduled test run finished in %s", time.Since(start).Round(time.Second))
	}

	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()
	if handle == nil {
		return
	}
	if next, err := handle.NextRun(); err == nil {
		s.log.Infof("Next test run at %s", next.Format("2006-01-02 15:04:05"))
	}
}
