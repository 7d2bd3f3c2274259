package jobqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// ErrQueueStopped is returned when dispatching to a stopped local queue.
var ErrQueueStopped = errors.New("job queue is not running")

// LocalQueue runs jobs on an in-process worker pool. It has the same
// contract as the Redis queue but loses pending jobs on restart. Stop runs
// every accepted job before it returns.
type LocalQueue struct {
	*registry

	workers    int
	buffer     int
	retryDelay time.Duration
	timeout    time.Duration

	mu       sync.Mutex
	jobs     map[string]*Job
	done     map[string]chan struct{}
	counters map[JobStatus]int64
	wg       sync.WaitGroup
	running  bool
	inFlight int64

	// sendMu guards sends on pending against close in Stop.
	sendMu  sync.RWMutex
	closed  bool
	pending chan string
}

// NewLocalQueue creates an in-process queue with the given number of workers.
func NewLocalQueue(workers int) *LocalQueue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &LocalQueue{
		registry:   newRegistry(),
		workers:    workers,
		buffer:     256,
		retryDelay: time.Second,
		timeout:    JobTimeout,
		jobs:       make(map[string]*Job),
		done:       make(map[string]chan struct{}),
		counters:   make(map[JobStatus]int64),
		closed:     true,
	}
}

// Start launches the workers
func (q *LocalQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	pending := make(chan string, q.buffer)

	q.sendMu.Lock()
	q.pending = pending
	q.closed = false
	q.sendMu.Unlock()

	log.Infof("[JobQueue] Starting %d local workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(pending)
	}
}

// Stop rejects new jobs, lets the workers drain every queued job and then
// fails jobs that were still waiting for a retry so no Await hangs.
func (q *LocalQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	log.Info("[JobQueue] Stopping local workers...")
	q.sendMu.Lock()
	q.closed = true
	close(q.pending)
	q.sendMu.Unlock()

	q.wg.Wait()

	q.mu.Lock()
	for jobID, ch := range q.done {
		if job, ok := q.jobs[jobID]; ok && !job.IsTerminal() {
			job.MarkAsFailed(ErrQueueStopped.Error())
			q.counters[JobStatusFailed]++
			q.expire(jobID)
		}
		close(ch)
		delete(q.done, jobID)
	}
	q.mu.Unlock()
	log.Info("[JobQueue] All local workers stopped")
}

func (q *LocalQueue) worker(pending <-chan string) {
	defer q.wg.Done()
	for jobID := range pending {
		q.process(jobID)
	}
}

// Dispatch enqueues a job for a registered type
func (q *LocalQueue) Dispatch(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error) {
	reg, err := q.lookup(jobType)
	if err != nil {
		return nil, err
	}

	job := newJob(uuid.New().String(), jobType, payload, reg.maxRetries)

	q.sendMu.RLock()
	defer q.sendMu.RUnlock()
	if q.closed {
		return nil, ErrQueueStopped
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.done[job.ID] = make(chan struct{})
	q.counters[JobStatusPending]++
	snapshot := cloneJob(job)
	q.mu.Unlock()

	select {
	case q.pending <- job.ID:
	case <-ctx.Done():
		q.mu.Lock()
		delete(q.jobs, job.ID)
		delete(q.done, job.ID)
		q.counters[JobStatusPending]--
		q.mu.Unlock()
		return nil, ctx.Err()
	}

	log.Infof("[JobQueue] Enqueued job %s (Type: %s)", job.ID, job.Type)
	return snapshot, nil
}

func (q *LocalQueue) process(jobID string) {
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok || job.IsTerminal() {
		q.mu.Unlock()
		return
	}
	job.MarkAsProcessing()
	q.inFlight++
	work := cloneJob(job)
	q.mu.Unlock()

	result, err := q.run(context.Background(), work, q.timeout)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight--

	if err != nil {
		log.Errorf("[JobQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())
		if job.IsRetryable() {
			log.Infof("[JobQueue] Retrying job %s (Attempt %d/%d)", job.ID, job.RetryCount, job.MaxRetries)
			job.MarkAsRetrying()
			q.scheduleRetry(job.ID, q.retryDelay*time.Duration(job.RetryCount))
			return
		}
		q.counters[JobStatusFailed]++
	} else {
		log.Infof("[JobQueue] Job %s completed successfully", job.ID)
		job.MarkAsCompleted(result)
		q.counters[JobStatusCompleted]++
	}

	if ch, ok := q.done[job.ID]; ok {
		close(ch)
		delete(q.done, job.ID)
	}
	q.expire(job.ID)
}

// scheduleRetry must be called with q.mu held. A retry that fires after
// Stop is dropped; Stop has already failed the job.
func (q *LocalQueue) scheduleRetry(jobID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		q.sendMu.RLock()
		defer q.sendMu.RUnlock()
		if q.closed {
			return
		}
		q.pending <- jobID
	})
}

// expire drops a terminal job after FinishedJobTTL. Must be called with q.mu held.
func (q *LocalQueue) expire(jobID string) {
	time.AfterFunc(FinishedJobTTL, func() {
		q.mu.Lock()
		delete(q.jobs, jobID)
		q.mu.Unlock()
	})
}

// Await blocks until the job is completed or failed permanently
func (q *LocalQueue) Await(ctx context.Context, jobID string) (*Job, error) {
	q.mu.Lock()
	job, ok := q.jobs[jobID]
	if !ok {
		q.mu.Unlock()
		return nil, ErrJobNotFound
	}
	ch, waiting := q.done[jobID]
	if !waiting {
		snapshot := cloneJob(job)
		q.mu.Unlock()
		return snapshot, nil
	}
	q.mu.Unlock()

	select {
	case <-ch:
		return q.GetJob(ctx, jobID)
	case <-ctx.Done():
		snapshot, _ := q.GetJob(context.Background(), jobID)
		return snapshot, ctx.Err()
	}
}

// GetJob returns a copy of the job
func (q *LocalQueue) GetJob(_ context.Context, jobID string) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

// Stats returns queue depth and job status counters
func (q *LocalQueue) Stats(context.Context) (*Stats, error) {
	// sendMu before mu, same order as Dispatch
	q.sendMu.RLock()
	queued := 0
	if !q.closed {
		queued = len(q.pending)
	}
	q.sendMu.RUnlock()

	q.mu.Lock()
	defer q.mu.Unlock()

	stats := &Stats{
		Pending:    int64(queued),
		Processing: q.inFlight,
		Counters:   make(map[JobStatus]int64, len(q.counters)),
	}
	for status, n := range q.counters {
		stats.Counters[status] = n
	}
	return stats, nil
}

func cloneJob(j *Job) *Job {
	c := *j
	return &c
}
