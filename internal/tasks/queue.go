// Package tasks runs background work decoupled from the request that created
// it: tasks can start after an initial delay, transient failures are retried
// with backoff, and a panic inside a task never takes a worker down. Steps
// executed through the queue must be idempotent, since a task that fails
// between side effect and completion will run again.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

// Task lifecycle states.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transient marks an error as retryable. Anything not wrapped in Transient is
// treated as permanent and fails the task immediately.
type Transient struct {
	Err error
}

func (t *Transient) Error() string { return t.Err.Error() }

func (t *Transient) Unwrap() error { return t.Err }

// MarkTransient wraps an error as retryable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &Transient{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var t *Transient
	return errors.As(err, &t)
}

// Options configure a queue.
type Options struct {
	Workers    int           // number of worker goroutines, default 4
	MaxRetries int           // retries after the first attempt, default 3
	Backoff    time.Duration // base backoff, doubled per attempt, default 500ms
}

// Task is a snapshot of one unit of work.
type Task struct {
	ID       string
	Name     string
	Status   Status
	Attempts int
	Err      error
}

type job struct {
	id   string
	name string
	fn   func(context.Context) error
}

// Queue is an in-process delayed task queue with a fixed worker pool.
type Queue struct {
	opts Options

	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup

	mu      sync.RWMutex
	state   map[string]*Task
	stopped bool
}

// New creates a queue; call Start before enqueueing.
func New(opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	return &Queue{
		opts:  opts,
		jobs:  make(chan job, 256),
		quit:  make(chan struct{}),
		state: make(map[string]*Task),
	}
}

// Start launches the worker pool.
func (q *Queue) Start() {
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Enqueue schedules fn to run after delay and returns the task ID. Returns an
// empty ID if the queue is already stopped.
func (q *Queue) Enqueue(name string, delay time.Duration, fn func(context.Context) error) string {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ""
	}
	id := uuid.NewString()
	q.state[id] = &Task{ID: id, Name: name, Status: StatusPending}
	q.mu.Unlock()

	j := job{id: id, name: name, fn: fn}
	if delay <= 0 {
		q.submit(j)
		return id
	}
	time.AfterFunc(delay, func() { q.submit(j) })
	return id
}

func (q *Queue) submit(j job) {
	select {
	case q.jobs <- j:
	case <-q.quit:
	}
}

// Task returns a snapshot of a task's state.
func (q *Queue) Task(id string) (Task, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.state[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Stop shuts the queue down and waits for in-flight tasks, bounded by ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	q.mu.Unlock()

	close(q.quit)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stopping task queue: %w", ctx.Err())
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.quit:
			return
		case j := <-q.jobs:
			q.run(j)
		}
	}
}

func (q *Queue) run(j job) {
	q.setStatus(j.id, StatusRunning, nil)

	for attempt := 0; ; attempt++ {
		q.bumpAttempts(j.id)
		err := q.call(j)
		if err == nil {
			q.setStatus(j.id, StatusCompleted, nil)
			return
		}

		if !IsTransient(err) || attempt >= q.opts.MaxRetries {
			log.Printf("tasks: %s (%s) failed: %v", j.name, j.id, err)
			q.setStatus(j.id, StatusFailed, err)
			return
		}

		backoff := q.opts.Backoff << attempt
		log.Printf("tasks: %s (%s) attempt %d failed, retrying in %s: %v", j.name, j.id, attempt+1, backoff, err)
		select {
		case <-q.quit:
			q.setStatus(j.id, StatusFailed, err)
			return
		case <-time.After(backoff):
		}
	}
}

// call invokes the task function, converting a panic into a permanent error.
func (q *Queue) call(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(context.Background())
}

func (q *Queue) setStatus(id string, s Status, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.state[id]; ok {
		t.Status = s
		t.Err = err
	}
}

func (q *Queue) bumpAttempts(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.state[id]; ok {
		t.Attempts++
	}
}
