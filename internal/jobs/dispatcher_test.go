package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recorder collects handled account IDs.
type recorder struct {
	mu       sync.Mutex
	accounts []int
	jobIDs   map[string]bool
}

func newRecorder() *recorder {
	return &recorder{jobIDs: make(map[string]bool)}
}

func (r *recorder) handle(_ context.Context, job RecomputeJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append(r.accounts, job.AccountID)
	r.jobIDs[job.ID] = true
	return nil
}

func (r *recorder) handled() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.accounts...)
}

func TestDispatcherProcessesJobs(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := NewDispatcher(rec.handle, 2, 16)
	d.Start(context.Background())

	require.NoError(t, d.Enqueue(context.Background(), 1, 2, 3))
	d.Close()

	require.ElementsMatch(t, []int{1, 2, 3}, rec.handled())

	t.Run("every job gets a unique id", func(t *testing.T) {
		require.Len(t, rec.jobIDs, 3)
	})
}

func TestDispatcherDrainsQueueOnClose(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	d := NewDispatcher(rec.handle, 1, 64)

	// Enqueue before any worker starts, then close immediately after:
	// queued jobs must still be handled.
	require.NoError(t, d.Enqueue(context.Background(), 10, 20, 30))
	d.Start(context.Background())
	d.Close()

	require.ElementsMatch(t, []int{10, 20, 30}, rec.handled())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(func(context.Context, RecomputeJob) error { return nil }, 1, 4)
	d.Start(context.Background())
	d.Close()

	require.Error(t, d.Enqueue(context.Background(), 1))
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(func(context.Context, RecomputeJob) error { return nil }, 1, 4)
	d.Start(context.Background())
	d.Close()
	d.Close()
}

func TestDispatcherSurvivesHandlerErrors(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	var failed bool
	var mu sync.Mutex
	handler := func(ctx context.Context, job RecomputeJob) error {
		mu.Lock()
		first := !failed
		failed = true
		mu.Unlock()
		if first {
			return errors.New("transient failure")
		}
		return rec.handle(ctx, job)
	}

	d := NewDispatcher(handler, 1, 16)
	d.Start(context.Background())
	require.NoError(t, d.Enqueue(context.Background(), 1, 2))
	d.Close()

	// The failing job is logged and dropped; the next one still runs.
	require.Len(t, rec.handled(), 1)
}

func TestDispatcherEnqueueHonorsContext(t *testing.T) {
	t.Parallel()

	// No workers running and a full buffer: Enqueue must give up when the
	// context is cancelled instead of blocking forever.
	d := NewDispatcher(func(context.Context, RecomputeJob) error { return nil }, 1, 1)
	require.NoError(t, d.Enqueue(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Enqueue(ctx, 2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
