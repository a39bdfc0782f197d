// Package taskpool provides a bounded worker pool with observable job lifecycles.
package taskpool

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/bitwelder/stew/internal/constant"
)

const (
	// ErrClosed is returned when submitting to a pool that began shutting down.
	ErrClosed constant.Error = "taskpool: the pool is closed"
	// ErrNotDeferred is returned when submitting a job that is already owned by a pool.
	ErrNotDeferred constant.Error = "taskpool: the job is not in deferred status"
)

// Pool runs the submitted jobs with a bounded concurrency.
//
// A Pool has no dedicated worker goroutines; each job runs on its own goroutine,
// and a weighted semaphore enforces that at most Size of them run at a time.
// Jobs past the limit wait in Queued status for a slot.
type Pool struct {
	size int
	log  zerolog.Logger
	sem  *semaphore.Weighted

	ctx  context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithSize sets how many jobs the pool runs concurrently.
// The default is the number of CPUs.
func WithSize(n int) Option {
	return func(p *Pool) { p.size = n }
}

// WithLogger sets the logger the pool reports job lifecycle events to.
// The default is a nop logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// New creates a started Pool.
func New(opts ...Option) *Pool {
	p := &Pool{
		size: runtime.NumCPU(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.size < 1 {
		panic("taskpool: the pool size must be positive")
	}
	p.sem = semaphore.NewWeighted(int64(p.size))
	p.ctx, p.stop = context.WithCancel(context.Background())
	return p
}

// Size returns the concurrency limit of the pool.
func (p *Pool) Size() int { return p.size }

// Submit hands the job over to the pool.
//
// The job must be in Deferred status; it moves to Queued right away, to Scheduled
// when it acquired a run slot, then to Running. After the run, the job rests in
// Stopped status until it gets Reset for a resubmission.
func (p *Pool) Submit(j *Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if !j.toQueued() {
		return ErrNotDeferred
	}
	p.log.Debug().Str("job", j.ID().String()).Msg("job queued")
	p.wg.Add(1)
	go p.run(j)
	return nil
}

// Go submits a new job running the given function, as a convenience over Submit.
func (p *Pool) Go(task Task) (*Job, error) {
	j := NewJob(task)
	if err := p.Submit(j); err != nil {
		return nil, err
	}
	return j, nil
}

func (p *Pool) run(j *Job) {
	defer p.wg.Done()
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.log.Debug().Str("job", j.ID().String()).Err(err).Msg("job dropped")
		j.finish(err)
		return
	}
	defer p.sem.Release(1)

	if !j.advance(Queued, Scheduled) { // the job got stopped while waiting for a slot
		j.finish(nil)
		return
	}
	ctx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	j.arm(cancel)

	var err error
	if j.advance(Scheduled, Running) {
		p.log.Debug().Str("job", j.ID().String()).Msg("job running")
		err = j.runnable.Run(ctx)
	}
	j.finish(err)
	p.log.Debug().Str("job", j.ID().String()).Err(err).Msg("job finished")
}

// Shutdown stops accepting jobs and waits for the already submitted ones.
// When the context gets cancelled before the jobs finish,
// the still running jobs receive cancellation, and the context's error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.stop()
		return nil
	case <-ctx.Done():
		p.stop()
		<-done
		return ctx.Err()
	}
}
