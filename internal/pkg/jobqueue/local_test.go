package jobqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedLocalQueue(t *testing.T, workers int) *LocalQueue {
	t.Helper()
	q := NewLocalQueue(workers)
	q.retryDelay = 10 * time.Millisecond
	q.Start()
	t.Cleanup(q.Stop)
	return q
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLocalQueue_CompletesJob(t *testing.T) {
	q := startedLocalQueue(t, 2)
	q.Register("echo", 0, func(_ context.Context, job *Job) (map[string]interface{}, error) {
		return map[string]interface{}{"echo": job.Payload["value"]}, nil
	})

	job, err := q.Dispatch(context.Background(), "echo", map[string]interface{}{"value": "hi"})
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)

	done, err := q.Await(awaitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, done.Status)
	assert.Equal(t, "hi", done.Result["echo"])
	assert.NotNil(t, done.CompletedAt)

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Counters[JobStatusCompleted])
}

func TestLocalQueue_FailureWithoutRetries(t *testing.T) {
	q := startedLocalQueue(t, 1)
	var calls int32
	q.Register("fail", 0, func(context.Context, *Job) (map[string]interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("nope")
	})

	job, err := q.Dispatch(context.Background(), "fail", nil)
	require.NoError(t, err)

	done, err := q.Await(awaitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, done.Status)
	assert.Equal(t, "nope", done.ErrorMsg)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLocalQueue_RetriesUntilSuccess(t *testing.T) {
	q := startedLocalQueue(t, 1)
	var calls int32
	q.Register("flaky", 2, func(context.Context, *Job) (map[string]interface{}, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("transient")
		}
		return nil, nil
	})

	job, err := q.Dispatch(context.Background(), "flaky", nil)
	require.NoError(t, err)

	done, err := q.Await(awaitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, done.Status)
	assert.Equal(t, 2, done.RetryCount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestLocalQueue_PanicBecomesFailure(t *testing.T) {
	q := startedLocalQueue(t, 1)
	q.Register("panic", 0, func(context.Context, *Job) (map[string]interface{}, error) {
		panic("kaboom")
	})

	job, err := q.Dispatch(context.Background(), "panic", nil)
	require.NoError(t, err)

	done, err := q.Await(awaitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, done.Status)
	assert.Contains(t, done.ErrorMsg, "kaboom")
}

func TestLocalQueue_DispatchErrors(t *testing.T) {
	q := NewLocalQueue(1)
	q.Register("echo", 0, func(context.Context, *Job) (map[string]interface{}, error) { return nil, nil })

	_, err := q.Dispatch(context.Background(), "echo", nil)
	assert.ErrorIs(t, err, ErrQueueStopped)

	q.Start()
	defer q.Stop()
	_, err = q.Dispatch(context.Background(), "unknown", nil)
	assert.ErrorIs(t, err, ErrUnknownJobType)

	_, err = q.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = q.Await(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestLocalQueue_AwaitHonoursContext(t *testing.T) {
	q := startedLocalQueue(t, 1)
	release := make(chan struct{})
	q.Register("slow", 0, func(context.Context, *Job) (map[string]interface{}, error) {
		<-release
		return nil, nil
	})
	defer close(release)

	job, err := q.Dispatch(context.Background(), "slow", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	snapshot, err := q.Await(ctx, job.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, snapshot)
	assert.False(t, snapshot.IsTerminal())
}

func TestLocalQueue_StopDrainsQueuedJobs(t *testing.T) {
	q := NewLocalQueue(1)
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var handled int32
	q.Register("slow", 0, func(context.Context, *Job) (map[string]interface{}, error) {
		started <- struct{}{}
		<-release
		atomic.AddInt32(&handled, 1)
		return nil, nil
	})
	q.Start()

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		job, err := q.Dispatch(context.Background(), "slow", nil)
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	<-started

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()

	// Stop waits for the queued jobs, not just the running one
	select {
	case <-stopped:
		t.Fatal("Stop returned while jobs were still queued")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&handled))

	for _, id := range ids {
		done, err := q.Await(awaitCtx(t), id)
		require.NoError(t, err)
		assert.Equal(t, JobStatusCompleted, done.Status)
	}

	_, err := q.Dispatch(context.Background(), "slow", nil)
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestLocalQueue_StopFailsJobsWaitingForRetry(t *testing.T) {
	q := NewLocalQueue(1)
	q.retryDelay = time.Hour
	q.Register("flaky", 3, func(context.Context, *Job) (map[string]interface{}, error) {
		return nil, errors.New("transient")
	})
	q.Start()

	job, err := q.Dispatch(context.Background(), "flaky", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snapshot, err := q.GetJob(context.Background(), job.ID)
		return err == nil && snapshot.Status == JobStatusRetrying
	}, 5*time.Second, 5*time.Millisecond)

	awaited := make(chan *Job, 1)
	go func() {
		done, _ := q.Await(context.Background(), job.ID)
		awaited <- done
	}()

	q.Stop()

	select {
	case done := <-awaited:
		require.NotNil(t, done)
		assert.Equal(t, JobStatusFailed, done.Status)
		assert.Equal(t, ErrQueueStopped.Error(), done.ErrorMsg)
	case <-time.After(5 * time.Second):
		t.Fatal("Await hung after Stop")
	}

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Counters[JobStatusFailed])
	assert.Equal(t, int64(0), stats.Pending)
}
