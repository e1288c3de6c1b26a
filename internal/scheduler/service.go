package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
)

const defaultInterval = 5 * time.Minute

// Job is one unit of periodic work. Names must be unique within a Service.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// ServiceParams configures a Service. JobTimeout defaults to Interval.
type ServiceParams struct {
	Logger     *logger.Logger
	Jobs       []Job
	Lock       Lock
	Metrics    *metrics.JobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs its jobs in order once per interval while holding Lock.
type Service struct {
	logg       *logger.Logger
	jobs       []Job
	lock       Lock
	metrics    *metrics.JobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}

	seen := make(map[string]struct{}, len(params.Jobs))
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job == nil {
			continue
		}
		if _, dup := seen[job.Name()]; dup {
			return nil, fmt.Errorf("duplicate job name %q", job.Name())
		}
		seen[job.Name()] = struct{}{}
		jobs = append(jobs, job)
	}

	s := &Service{
		logg:       params.Logger,
		jobs:       jobs,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = s.interval
	}
	return s, nil
}

// JobNames lists jobs in execution order.
func (s *Service) JobNames() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

// Run executes a round immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "scheduler.round_failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "scheduler.stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes one round and reports false when another replica held
// the lock. Job failures are logged and counted, never returned.
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	if !held {
		s.logg.Info(ctx, "scheduler.lock_busy")
		return false, nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "scheduler.lock_release_failed", err)
		}
	}()

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		s.runJob(ctx, job)
	}
	return true, nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	ctx = s.logg.WithJob(ctx, job.Name())
	start := time.Now()
	err := s.invoke(ctx, job)
	elapsed := time.Since(start)
	s.metrics.Observe(job.Name(), elapsed, err)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "scheduler.job_failed", err)
		return
	}
	s.logg.Info(ctx, "scheduler.job_done")
}

func (s *Service) invoke(ctx context.Context, job Job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), p)
		}
	}()
	return job.Run(ctx)
}
