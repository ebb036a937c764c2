package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesByType(t *testing.T) {
	var hits int32
	handlers := Handlers{
		"refresh": func(ctx context.Context, job Job) error {
			atomic.AddInt32(&hits, 1)
			return nil
		},
	}
	q := NewQueue("test", handlers.Dispatch(), QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "refresh"}))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)
}

func TestQueueEnqueueAfterWaits(t *testing.T) {
	done := make(chan time.Time, 1)
	q := NewQueue("delayed", func(ctx context.Context, job Job) error {
		done <- time.Now()
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	start := time.Now()
	require.NoError(t, q.EnqueueAfter(Job{ID: "1", Type: "refresh"}, 30*time.Millisecond))

	select {
	case ran := <-done:
		assert.GreaterOrEqual(t, ran.Sub(start), 30*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("delayed job never ran")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "refresh"}))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
	assert.Error(t, q.EnqueueAfter(Job{ID: "1"}, time.Millisecond))
}

func TestQueueRunsDelayedJobsInDeadlineOrder(t *testing.T) {
	order := make(chan string, 3)
	q := NewQueue("ordered", func(ctx context.Context, job Job) error {
		order <- job.ID
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.EnqueueAfter(Job{ID: "late"}, 60*time.Millisecond))
	require.NoError(t, q.EnqueueAfter(Job{ID: "early"}, 10*time.Millisecond))
	require.NoError(t, q.EnqueueAfter(Job{ID: "middle"}, 30*time.Millisecond))

	var got []string
	for len(got) < 3 {
		select {
		case id := <-order:
			got = append(got, id)
		case <-time.After(time.Second):
			t.Fatalf("only %v ran", got)
		}
	}
	assert.Equal(t, []string{"early", "middle", "late"}, got)
}

func TestQueueStopDropsPendingDelays(t *testing.T) {
	var ran int32
	q := NewQueue("drop", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	require.NoError(t, q.EnqueueAfter(Job{ID: "1"}, time.Hour))
	q.Stop()

	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
	assert.Error(t, q.Enqueue(Job{ID: "2"}))
}
