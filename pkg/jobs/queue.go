package jobs

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error schedules a retry.
type Handler func(context.Context, Job) error

// Handlers routes jobs by Type.
type Handlers map[string]Handler

// Dispatch returns a Handler that looks up the job type in h.
func (h Handlers) Dispatch() Handler {
	return func(ctx context.Context, job Job) error {
		fn, ok := h[job.Type]
		if !ok {
			return fmt.Errorf("no handler for job type %q", job.Type)
		}
		return fn(ctx, job)
	}
}

// QueueConfig sizes the worker pool. Zero values pick defaults.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff step; it doubles per attempt.
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 8
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Queue is an in-process worker pool. Delayed jobs and retries wait in a
// deadline heap drained by one scheduler goroutine.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.Logger

	ready chan Job
	wake  chan struct{}

	mu      sync.Mutex
	pending deadlines
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewQueue builds a stopped queue; call Start before enqueueing.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.With(zap.String("queue", name)),
		ready:   make(chan Job, cfg.BufferSize),
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the workers and the scheduler. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	q.wg.Add(q.cfg.Workers + 1)
	go q.schedule()
	for i := 0; i < q.cfg.Workers; i++ {
		go q.work(i + 1)
	}
	q.log.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels in-flight work and waits for every goroutine. Jobs still
// waiting on a deadline are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	dropped := q.pending.Len()
	q.pending = nil
	q.mu.Unlock()

	q.wg.Wait()
	q.log.Info("queue stopped", zap.Int("dropped_delayed", dropped))
}

// Enqueue hands job to a worker, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	ctx, err := q.live()
	if err != nil {
		return err
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.ready <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
}

// EnqueueAfter runs job once delay has elapsed.
func (q *Queue) EnqueueAfter(job Job, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(job)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	return q.later(job, time.Now().Add(delay))
}

func (q *Queue) live() (context.Context, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return nil, fmt.Errorf("queue %s not started", q.name)
	}
	return q.ctx, nil
}

func (q *Queue) later(job Job, at time.Time) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	heap.Push(&q.pending, deadline{at: at, job: job})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *Queue) schedule() {
	defer q.wg.Done()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		q.mu.Lock()
		var due []Job
		now := time.Now()
		for q.pending.Len() > 0 && !q.pending[0].at.After(now) {
			due = append(due, heap.Pop(&q.pending).(deadline).job)
		}
		wait := time.Hour
		if q.pending.Len() > 0 {
			wait = q.pending[0].at.Sub(now)
		}
		q.mu.Unlock()

		for _, job := range due {
			select {
			case q.ready <- job:
			case <-q.ctx.Done():
				return
			}
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
		select {
		case <-q.ctx.Done():
			return
		case <-q.wake:
		case <-timer.C:
		}
	}
}

func (q *Queue) work(id int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.ready:
			q.run(id, job)
		}
	}
}

func (q *Queue) run(worker int, job Job) {
	fields := []zap.Field{zap.Int("worker", worker), zap.String("job_id", job.ID), zap.String("type", job.Type)}
	err := q.handler(q.ctx, job)
	if err == nil {
		q.log.Debug("job done", fields...)
		return
	}
	job.Attempt++
	fields = append(fields, zap.Int("attempt", job.Attempt), zap.Error(err))
	if job.Attempt > q.cfg.MaxRetries {
		q.log.Error("job gave up", fields...)
		return
	}
	backoff := q.cfg.RetryDelay << (job.Attempt - 1)
	q.log.Warn("job failed", append(fields, zap.Duration("retry_in", backoff))...)
	if err := q.later(job, time.Now().Add(backoff)); err != nil {
		q.log.Debug("retry dropped", zap.String("job_id", job.ID), zap.Error(err))
	}
}

type deadline struct {
	at  time.Time
	job Job
}

type deadlines []deadline

func (d deadlines) Len() int            { return len(d) }
func (d deadlines) Less(i, j int) bool  { return d[i].at.Before(d[j].at) }
func (d deadlines) Swap(i, j int)       { d[i], d[j] = d[j], d[i] }
func (d *deadlines) Push(x interface{}) { *d = append(*d, x.(deadline)) }
func (d *deadlines) Pop() interface{} {
	old := *d
	n := len(old)
	item := old[n-1]
	*d = old[:n-1]
	return item
}
