// Package worker runs pipeline jobs on a bounded pool of goroutines.
//
// Submissions go through a fixed-size queue. When the queue is full a
// submission is rejected with [ErrQueueFull] rather than blocking the
// caller, and a job whose ID is already queued or running is rejected
// with [ErrInFlight], so a task never has two concurrent runs.
package worker

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gmap/pkg/errors"
	"github.com/matzehuels/gmap/pkg/observability"
)

// Defaults for Config fields left zero.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

// Submission errors.
var (
	ErrQueueFull = errors.New(errors.ErrCodeQueueFull, "worker queue is full")
	ErrInFlight  = errors.New(errors.ErrCodeTaskInFlight, "task is already queued or running")
	ErrClosed    = errors.New(errors.ErrCodeUnsupported, "worker pool is shut down")
)

// Job is one unit of work. ID identifies the task the job runs.
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// Config configures a Pool.
type Config struct {
	Workers   int
	QueueSize int
	Logger    *log.Logger
}

// Pool is a fixed set of workers draining a bounded queue.
type Pool struct {
	workers int
	queue   chan Job
	logger  *log.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	reserved map[string]uint64
	seq      uint64
	busy     int
	started  bool
	closed   bool

	wg sync.WaitGroup
}

// New creates a pool. Workers do not run until Start is called; jobs
// submitted before then wait in the queue.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Pool{
		workers:  cfg.Workers,
		queue:    make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger,
		inFlight: make(map[string]struct{}),
		reserved: make(map[string]uint64),
	}
}

// Start launches the workers. ctx is passed to every job; cancelling it does
// not interrupt a running job, whose tools always run to completion.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
	p.logger.Debug("worker pool started", "workers", p.workers, "queue", cap(p.queue))
}

// Submit queues job without blocking.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	return p.submit(ctx, job, 0)
}

// submit queues job. A nonzero seq lets job take the slot held by the
// matching reservation, which is consumed on success only.
func (p *Pool) submit(ctx context.Context, job Job, seq uint64) error {
	hooks := observability.Worker()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		hooks.OnSubmit(ctx, job.ID, "closed")
		return ErrClosed
	}
	held := seq != 0 && p.reserved[job.ID] == seq
	if _, ok := p.inFlight[job.ID]; ok && !held {
		hooks.OnSubmit(ctx, job.ID, "in_flight")
		return ErrInFlight
	}

	select {
	case p.queue <- job:
	default:
		hooks.OnSubmit(ctx, job.ID, "queue_full")
		p.logger.Warn("queue full, rejecting task", "task", job.ID, "queued", len(p.queue))
		return ErrQueueFull
	}

	if held {
		delete(p.reserved, job.ID)
	}
	p.inFlight[job.ID] = struct{}{}
	hooks.OnSubmit(ctx, job.ID, "")
	hooks.OnQueueDepth(len(p.queue))
	return nil
}

// Reservation holds a task ID in the pool between Reserve and Submit, so the
// caller can persist the queued state before the job exists without racing
// another submission of the same task.
type Reservation struct {
	pool *Pool
	id   string
	seq  uint64
}

// Reserve claims id. While the reservation is held, InFlight reports true
// for id and other submissions of it fail with ErrInFlight.
func (p *Pool) Reserve(ctx context.Context, id string) (*Reservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		observability.Worker().OnSubmit(ctx, id, "closed")
		return nil, ErrClosed
	}
	if _, ok := p.inFlight[id]; ok {
		observability.Worker().OnSubmit(ctx, id, "in_flight")
		return nil, ErrInFlight
	}
	p.seq++
	p.inFlight[id] = struct{}{}
	p.reserved[id] = p.seq
	return &Reservation{pool: p, id: id, seq: p.seq}, nil
}

// Submit queues run under the reserved ID. On error the reservation is
// still held and must be released.
func (r *Reservation) Submit(ctx context.Context, run func(ctx context.Context) error) error {
	return r.pool.submit(ctx, Job{ID: r.id, Run: run}, r.seq)
}

// Release drops the reservation unless Submit already consumed it. It is
// safe to call more than once.
func (r *Reservation) Release() {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reserved[r.id] == r.seq {
		delete(p.reserved, r.id)
		delete(p.inFlight, r.id)
	}
}

// InFlight reports whether a job with the given ID is reserved, queued or
// running.
func (p *Pool) InFlight(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inFlight[id]
	return ok
}

// Stats returns the number of queued jobs and busy workers.
func (p *Pool) Stats() (queued, busy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue), p.busy
}

// Shutdown stops accepting jobs and waits for queued and running jobs to
// finish, or for ctx to be done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	hooks := observability.Worker()

	for job := range p.queue {
		p.mu.Lock()
		p.busy++
		hooks.OnBusy(p.busy)
		hooks.OnQueueDepth(len(p.queue))
		p.mu.Unlock()

		start := time.Now()
		err := p.run(ctx, job)
		if err != nil {
			p.logger.Error("job failed", "task", job.ID, "worker", id, "error", err, "duration", time.Since(start))
		} else {
			p.logger.Debug("job finished", "task", job.ID, "worker", id, "duration", time.Since(start))
		}

		p.mu.Lock()
		p.busy--
		delete(p.inFlight, job.ID)
		hooks.OnBusy(p.busy)
		p.mu.Unlock()
	}
}

// run executes job, converting a panic into an error so one bad job does
// not take down the worker.
func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, "job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}
