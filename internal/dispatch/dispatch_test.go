package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscan/eegcorpus/internal/dispatch"
)

func TestMapCollectPreservesIndexCorrespondence(t *testing.T) {
	pool := dispatch.NewPool(4)
	items := []int{5, 3, 8, 1, 9, 2, 7}

	results, errs, err := dispatch.MapCollect(context.Background(), pool, items,
		func(ctx context.Context, n int) (string, error) {
			// Finish in scrambled order.
			time.Sleep(time.Duration(n) * time.Millisecond)
			return fmt.Sprintf("r%d", n), nil
		})
	require.NoError(t, err)

	require.Len(t, results, len(items))
	for i, n := range items {
		assert.Equal(t, fmt.Sprintf("r%d", n), results[i])
		assert.NoError(t, errs[i])
	}
}

func TestMapCollectIsolatesFailures(t *testing.T) {
	pool := dispatch.NewPool(2)
	boom := errors.New("boom")

	results, errs, err := dispatch.MapCollect(context.Background(), pool, []int{0, 1, 2, 3},
		func(ctx context.Context, n int) (int, error) {
			if n%2 == 1 {
				return 0, boom
			}
			return n * 10, nil
		})
	require.NoError(t, err)

	assert.Equal(t, 0, results[0])
	assert.Equal(t, 20, results[2])
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])
	assert.ErrorIs(t, errs[3], boom)
}

func TestMapCollectCancellation(t *testing.T) {
	pool := dispatch.NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With an idle pool the semaphore is always acquirable, so cancellation
	// must hold even when both select cases are ready: no task may run.
	var ran int32
	_, _, err := dispatch.MapCollect(ctx, pool, []int{1, 2, 3},
		func(ctx context.Context, n int) (int, error) {
			atomic.AddInt32(&ran, 1)
			return n, nil
		})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&ran), "no task may start after cancellation")
}

func TestScatterReturnsImmediately(t *testing.T) {
	pool := dispatch.NewPool(1)
	release := make(chan struct{})

	start := time.Now()
	dispatch.Scatter(context.Background(), pool, []int{1, 2, 3, 4},
		func(ctx context.Context, n int) { <-release })
	assert.Less(t, time.Since(start), 50*time.Millisecond, "scatter must not block on task completion")

	close(release)
	pool.Drain()
}

func TestScatterFailureDoesNotHaltSiblings(t *testing.T) {
	pool := dispatch.NewPool(2)
	dir := t.TempDir()

	// A failing task simply writes nothing; siblings still produce output.
	dispatch.Scatter(context.Background(), pool, []int{1, 2, 3},
		func(ctx context.Context, n int) {
			if n == 2 {
				return // simulated task failure: absent artifact
			}
			_ = os.WriteFile(filepath.Join(dir, fmt.Sprintf("task-%d.done", n)), []byte("ok"), 0o644)
		})
	pool.Drain()

	// Completeness is verified out of band, by inspecting expected outputs.
	assert.FileExists(t, filepath.Join(dir, "task-1.done"))
	assert.NoFileExists(t, filepath.Join(dir, "task-2.done"))
	assert.FileExists(t, filepath.Join(dir, "task-3.done"))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := dispatch.NewPool(3)
	var running, peak int32

	items := make([]int, 20)
	_, _, err := dispatch.MapCollect(context.Background(), pool, items,
		func(ctx context.Context, _ int) (struct{}, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}, nil
		})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestPathClaims(t *testing.T) {
	claims := dispatch.NewPathClaims()

	require.NoError(t, claims.Claim("task-a", "/out/sub-0001/ses-001"))
	// Same owner may re-claim for idempotent re-runs.
	require.NoError(t, claims.Claim("task-a", "/out/sub-0001/ses-001"))
	require.NoError(t, claims.Claim("task-b", "/out/sub-0002/ses-001"))

	err := claims.Claim("task-c", "/out/sub-0001/ses-001")
	assert.ErrorIs(t, err, dispatch.ErrPathCollision)
}
