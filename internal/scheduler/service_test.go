package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
)

type testJob struct {
	name    string
	err     error
	panics  bool
	runs    int
	sawDead bool
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Run(ctx context.Context) error {
	j.runs++
	if _, ok := ctx.Deadline(); ok {
		j.sawDead = true
	}
	if j.panics {
		panic("phase table corrupted")
	}
	return j.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "scheduler-test", Output: io.Discard})
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	panicking := &testJob{name: "panic", panics: true}
	last := &testJob{name: "last"}
	service, err := NewService(ServiceParams{
		Logger:  quietLogger(),
		Jobs:    []Job{ok, failing, nil, panicking, last},
		Lock:    &LocalLock{},
		Metrics: metrics.NewJobMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"success", "fail", "panic", "last"}, service.JobNames())

	ran, err := service.RunOnce(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
	for _, j := range []*testJob{ok, failing, panicking, last} {
		assert.Equal(t, 1, j.runs, j.name)
		assert.True(t, j.sawDead, "%s should run with a deadline", j.name)
	}

	ran, _ = service.RunOnce(context.Background())
	assert.True(t, ran, "lock must be released after a round")
}

func TestNewServiceRejectsDuplicateNames(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: quietLogger(),
		Lock:   &LocalLock{},
		Jobs:   []Job{&testJob{name: "cycle-phase"}, &testJob{name: "cycle-phase"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle-phase")
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	lock := &LocalLock{}
	held, _ := lock.Acquire(context.Background())
	require.True(t, held)

	job := &testJob{name: "never"}
	service, err := NewService(ServiceParams{Logger: quietLogger(), Jobs: []Job{job}, Lock: lock})
	require.NoError(t, err)

	ran, err := service.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, job.runs)
}

func TestNewServiceRequiresLockAndLogger(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: quietLogger()})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Lock: &LocalLock{}})
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "once"}
	service, err := NewService(ServiceParams{Logger: quietLogger(), Jobs: []Job{job}, Lock: &LocalLock{}, Interval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, service.Run(ctx), context.Canceled)
	assert.Zero(t, job.runs, "a cancelled context skips every job")
}
