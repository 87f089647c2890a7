package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feirinha/feirinha-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	released int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.released++
	return nil
}

type testJob struct {
	name  string
	err   error
	panic bool
	runs  int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	if t.panic {
		panic("exploded")
	}
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newTestService(t *testing.T, l *fakeLock, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{Logger: testLogger(), Registry: registry, Lock: l, Interval: time.Minute})
	require.NoError(t, err)
	return service
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	panicking := &testJob{name: "panic", panic: true}
	last := &testJob{name: "last"}
	l := &fakeLock{}

	require.NoError(t, newTestService(t, l, success, failure, panicking, last).RunOnce(context.Background()))

	for _, job := range []*testJob{success, failure, panicking, last} {
		assert.Equal(t, 1, job.runs, job.name)
	}
	assert.Equal(t, 1, l.released)
	assert.False(t, l.acquired)
}

func TestRunOnceSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &testJob{name: "sweep"}
	l := &fakeLock{acquired: true}

	require.NoError(t, newTestService(t, l, job).RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, l.released)
}

func TestRunOnceSurfacesLockErrors(t *testing.T) {
	job := &testJob{name: "sweep"}
	err := newTestService(t, &fakeLock{err: errors.New("redis down")}, job).RunOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, job.runs)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	job := &testJob{name: "sweep"}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestService(t, &fakeLock{}, job).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: testLogger()})
	require.Error(t, err)
}
