package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestProcessorQueue_RunsAllTasks(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}
	h := HandlerFunc(func(ctx context.Context, task Task) error {
		mu.Lock()
		defer mu.Unlock()
		seen[task.JobID] = common.RequestIDFromContext(ctx)
		return nil
	})
	q := NewProcessorQueue(h, discard(), WithWorkers(3), WithQueueSize(10))

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Enqueue(context.Background(), Task{JobID: id, RequestID: "rid-" + id}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, map[string]string{"a": "rid-a", "b": "rid-b", "c": "rid-c", "d": "rid-d"}, seen)
}

func TestProcessorQueue_FullAndClosed(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h := HandlerFunc(func(ctx context.Context, task Task) error {
		started <- struct{}{}
		<-release
		return nil
	})
	q := NewProcessorQueue(h, discard(), WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Task{JobID: "running"}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), Task{JobID: "buffered"}))

	err := q.Enqueue(context.Background(), Task{JobID: "overflow"})
	assert.ErrorIs(t, err, common.ErrQueueFull)

	close(release)
	q.Shutdown(context.Background())

	err = q.Enqueue(context.Background(), Task{JobID: "late"})
	assert.ErrorIs(t, err, common.ErrQueueFull)
}

func TestProcessorQueue_TimeoutAndErrors(t *testing.T) {
	var failures atomic.Int32
	h := HandlerFunc(func(ctx context.Context, task Task) error {
		<-ctx.Done()
		failures.Add(1)
		return errors.New("slow")
	})
	q := NewProcessorQueue(h, discard(), WithWorkers(1), WithProcessTimeout(20*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), Task{JobID: "x"}))
	q.Shutdown(context.Background())

	assert.Equal(t, int32(1), failures.Load())
}
