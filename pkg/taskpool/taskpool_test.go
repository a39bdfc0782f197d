package taskpool_test

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitwelder/stew/pkg/taskpool"
)

func TestPool_Go(t *testing.T) {
	p := taskpool.New(taskpool.WithSize(2))
	defer p.Shutdown(context.Background())

	var ran atomic.Bool
	job, err := p.Go(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, job.Wait(context.Background()))
	assert.True(t, ran.Load())
	assert.Equal(t, taskpool.Stopped, job.Status())
}

func TestPool_Submit_statusTransitions(t *testing.T) {
	p := taskpool.New(taskpool.WithSize(1))
	defer p.Shutdown(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	job := taskpool.NewJob(taskpool.Task(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	assert.Equal(t, taskpool.Deferred, job.Status())

	require.NoError(t, p.Submit(job))
	<-started
	assert.Equal(t, taskpool.Running, job.Status())

	close(release)
	require.NoError(t, job.Wait(context.Background()))
	assert.Equal(t, taskpool.Stopped, job.Status())
}

func TestPool_Submit_rejectsNonDeferredJobs(t *testing.T) {
	p := taskpool.New(taskpool.WithSize(1))
	defer p.Shutdown(context.Background())

	job, err := p.Go(func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, job.Wait(context.Background()))

	err = p.Submit(job)
	assert.ErrorIs(t, err, taskpool.ErrNotDeferred)
}

func TestPool_concurrencyLimit(t *testing.T) {
	const limit = 2
	p := taskpool.New(taskpool.WithSize(limit))
	defer p.Shutdown(context.Background())

	var current, peak atomic.Int32
	release := make(chan struct{})
	var jobs []*taskpool.Job
	for i := 0; i < 6; i++ {
		job, err := p.Go(func(ctx context.Context) error {
			n := current.Add(1)
			for {
				max := peak.Load()
				if n <= max || peak.CompareAndSwap(max, n) {
					break
				}
			}
			<-release
			current.Add(-1)
			return nil
		})
		require.NoError(t, err)
		jobs = append(jobs, job)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	for _, job := range jobs {
		require.NoError(t, job.Wait(context.Background()))
	}
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestJob_Stop_beforeRunSkipsTheWork(t *testing.T) {
	p := taskpool.New(taskpool.WithSize(1))
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	blocker, err := p.Go(func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	var ran atomic.Bool
	job := taskpool.NewJob(taskpool.Task(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}))
	require.NoError(t, p.Submit(job))

	job.Stop()
	close(release)

	require.NoError(t, blocker.Wait(context.Background()))
	require.NoError(t, job.Wait(context.Background()))
	assert.False(t, ran.Load())
	assert.Equal(t, taskpool.Stopped, job.Status())
}

func TestJob_Stop_cancelsTheRunningWork(t *testing.T) {
	p := taskpool.New(taskpool.WithSize(1))
	defer p.Shutdown(context.Background())

	started := make(chan struct{})
	job, err := p.Go(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	<-started
	job.Stop()

	err = job.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJob_Wait_honoursTheContext(t *testing.T) {
	p := taskpool.New(taskpool.WithSize(1))
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	defer close(release)
	job, err := p.Go(func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, job.Wait(ctx), context.DeadlineExceeded)
}

func TestJob_Wait_returnsTheRunError(t *testing.T) {
	p := taskpool.New()
	defer p.Shutdown(context.Background())

	expErr := errors.New("boom")
	job, err := p.Go(func(ctx context.Context) error { return expErr })
	require.NoError(t, err)

	assert.ErrorIs(t, job.Wait(context.Background()), expErr)
}

func TestJob_Reset_allowsResubmission(t *testing.T) {
	p := taskpool.New(taskpool.WithSize(1))
	defer p.Shutdown(context.Background())

	var runs atomic.Int32
	job := taskpool.NewJob(taskpool.Task(func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))

	require.NoError(t, p.Submit(job))
	require.NoError(t, job.Wait(context.Background()))

	require.NoError(t, job.Reset())
	assert.Equal(t, taskpool.Deferred, job.Status())

	require.NoError(t, p.Submit(job))
	require.NoError(t, job.Wait(context.Background()))
	assert.Equal(t, int32(2), runs.Load())
}

func TestPool_Shutdown(t *testing.T) {
	t.Run("waits for the submitted jobs", func(t *testing.T) {
		p := taskpool.New(taskpool.WithSize(1))

		var done atomic.Bool
		_, err := p.Go(func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			done.Store(true)
			return nil
		})
		require.NoError(t, err)

		require.NoError(t, p.Shutdown(context.Background()))
		assert.True(t, done.Load())
	})

	t.Run("rejects submissions afterwards", func(t *testing.T) {
		p := taskpool.New(taskpool.WithSize(1))
		require.NoError(t, p.Shutdown(context.Background()))

		_, err := p.Go(func(ctx context.Context) error { return nil })
		assert.ErrorIs(t, err, taskpool.ErrClosed)
	})

	t.Run("cancels the jobs when its context expires", func(t *testing.T) {
		p := taskpool.New(taskpool.WithSize(1))

		job, err := p.Go(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
		assert.ErrorIs(t, job.Wait(context.Background()), context.Canceled)
	})
}

func TestPool_logsTheJobLifecycle(t *testing.T) {
	var buf bytes.Buffer
	p := taskpool.New(
		taskpool.WithSize(1),
		taskpool.WithLogger(zerolog.New(&buf)),
	)
	defer p.Shutdown(context.Background())

	job, err := p.Go(func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, job.Wait(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "job queued")
	assert.Contains(t, out, "job running")
	assert.Contains(t, out, "job finished")
	assert.Contains(t, out, job.ID().String())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "deferred", taskpool.Deferred.String())
	assert.Equal(t, "queued", taskpool.Queued.String())
	assert.Equal(t, "scheduled", taskpool.Scheduled.String())
	assert.Equal(t, "running", taskpool.Running.String())
	assert.Equal(t, "stopped", taskpool.Stopped.String())
	assert.Equal(t, "invalid", taskpool.Status(42).String())
}
