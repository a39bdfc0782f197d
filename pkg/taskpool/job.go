package taskpool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Job.
type Status int32

const (
	// Deferred is the resting state: the job is not owned by any pool.
	Deferred Status = iota
	// Queued means the job is submitted and waits for a run slot.
	Queued
	// Scheduled means the job acquired a run slot and is about to run.
	Scheduled
	// Running means the job's Run function is executing.
	Running
	// Stopped means the job finished or was stopped before running.
	Stopped
)

func (s Status) String() string {
	switch s {
	case Deferred:
		return "deferred"
	case Queued:
		return "queued"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// Runnable represents an executable work.
type Runnable interface {
	Run(ctx context.Context) error
}

// Task is a function form of Runnable.
type Task func(ctx context.Context) error

// Run supplies the Runnable interface for Task.
func (fn Task) Run(ctx context.Context) error { return fn(ctx) }

// Job is a schedulable unit of work with an observable lifecycle.
//
// A Job starts out Deferred, and a pool moves it through
// Queued, Scheduled and Running into the Stopped resting state.
// A Stopped job can be re-armed with Reset and submitted again.
type Job struct {
	id       uuid.UUID
	runnable Runnable
	status   atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	err    error
	done   chan struct{}
}

// NewJob creates a Deferred job around the given work.
func NewJob(r Runnable) *Job {
	return &Job{
		id:       uuid.New(),
		runnable: r,
		done:     make(chan struct{}),
	}
}

// ID returns the job's unique identity.
func (j *Job) ID() uuid.UUID { return j.id }

// Status returns the job's current lifecycle state.
func (j *Job) Status() Status { return Status(j.status.Load()) }

// IsStopped reports whether the job is in Stopped status.
func (j *Job) IsStopped() bool { return j.Status() == Stopped }

// Stop requests the job to stop.
// A Running job receives cancellation through its context;
// a job that did not start yet will skip its run.
func (j *Job) Stop() {
	j.status.Store(int32(Stopped))
	j.mu.Lock()
	cancel := j.cancel
	j.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the job's current run finishes, and returns the run's error.
// When the context gets cancelled first, the context's error is returned instead.
func (j *Job) Wait(ctx context.Context) error {
	j.mu.Lock()
	done := j.done
	j.mu.Unlock()
	select {
	case <-done:
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset re-arms a Stopped job so it can be submitted again.
// Resetting is only allowed from the Deferred or Stopped status.
func (j *Job) Reset() error {
	if s := j.Status(); s != Stopped && s != Deferred {
		return ErrNotDeferred.F("job status: %s", s)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Store(int32(Deferred))
	j.cancel = nil
	j.err = nil
	j.done = make(chan struct{})
	return nil
}

// toQueued moves the job from Deferred to Queued.
func (j *Job) toQueued() bool {
	return j.status.CompareAndSwap(int32(Deferred), int32(Queued))
}

// advance moves the job between two lifecycle states.
// It reports false when the job left the expected state, for example due to a Stop.
func (j *Job) advance(from, to Status) bool {
	return j.status.CompareAndSwap(int32(from), int32(to))
}

// arm stores the cancel function of the current run for Stop.
func (j *Job) arm(cancel context.CancelFunc) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = cancel
}

// finish records the run result and releases the waiters.
func (j *Job) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status.Store(int32(Stopped))
	j.err = err
	close(j.done)
}
