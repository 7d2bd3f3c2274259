package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrJobNotFound is returned when a job id is unknown or expired.
	ErrJobNotFound = errors.New("job not found")
	// ErrUnknownJobType is returned when no handler is registered for a type.
	ErrUnknownJobType = errors.New("unknown job type")
)

// Dispatcher enqueues jobs and lets callers observe their outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error)
	// Await blocks until the job reaches a terminal status or ctx is done.
	Await(ctx context.Context, jobID string) (*Job, error)
	GetJob(ctx context.Context, jobID string) (*Job, error)
	Stats(ctx context.Context) (*Stats, error)
}

type registration struct {
	handler    Handler
	maxRetries int
}

// registry maps job types to handlers. It is shared by both backends.
type registry struct {
	mu       sync.RWMutex
	handlers map[JobType]registration
}

func newRegistry() *registry {
	return &registry{handlers: make(map[JobType]registration)}
}

// Register installs the handler for jobType. maxRetries is the number of
// extra attempts after a failure.
func (r *registry) Register(jobType JobType, maxRetries int, handler Handler) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = registration{handler: handler, maxRetries: maxRetries}
}

func (r *registry) lookup(jobType JobType) (registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.handlers[jobType]
	if !ok {
		return registration{}, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	return reg, nil
}

// run executes a handler with the per-job timeout and converts panics into
// errors so one bad event cannot take down a worker.
func (r *registry) run(ctx context.Context, job *Job, timeout time.Duration) (result map[string]interface{}, err error) {
	reg, err := r.lookup(job.Type)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job handler panicked: %v", rec)
		}
	}()
	return reg.handler(ctx, job)
}

// pollUntilTerminal is the Await strategy for backends without push
// notifications.
func pollUntilTerminal(ctx context.Context, interval time.Duration, get func(context.Context) (*Job, error)) (*Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := get(ctx)
		if err != nil {
			return nil, err
		}
		if job.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}
