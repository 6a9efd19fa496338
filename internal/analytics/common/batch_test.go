package common

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelMap_PreservesInputOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	got, err := ParallelMap(context.Background(), items, func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	}, WithConcurrency(8))
	require.NoError(t, err)
	require.True(t, got.Ok())

	for i, v := range got.Results {
		assert.Equal(t, i*2, v)
	}
}

func TestParallelMap_RespectsConcurrencyLimit(t *testing.T) {
	var current, peak atomic.Int64

	items := make([]int, 50)
	_, err := ParallelMap(context.Background(), items, func(_ context.Context, _ int) (int, error) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		current.Add(-1)
		return 0, nil
	}, WithConcurrency(4))
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(4))
}

func TestParallelMap_CollectsFailuresWithoutAborting(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	got, err := ParallelMap(context.Background(), items, func(_ context.Context, v int) (string, error) {
		if v%2 == 1 {
			return "", fmt.Errorf("odd item %d", v)
		}
		return fmt.Sprintf("ok-%d", v), nil
	})
	require.NoError(t, err)
	assert.Len(t, got.Failed, 2)
	assert.False(t, got.Ok())

	failedIdx := map[int]bool{}
	for _, f := range got.Failed {
		failedIdx[f.Index] = true
		assert.Error(t, f.Err)
	}
	assert.True(t, failedIdx[1])
	assert.True(t, failedIdx[3])

	assert.Equal(t, "ok-0", got.Results[0])
	assert.Equal(t, "", got.Results[1])
	assert.Equal(t, "ok-4", got.Results[4])
}

func TestParallelMap_NilFunc(t *testing.T) {
	_, err := ParallelMap[int, int](context.Background(), []int{1}, nil)
	assert.Error(t, err)
}

func TestParallelMap_EmptyInput(t *testing.T) {
	got, err := ParallelMap(context.Background(), nil, func(_ context.Context, v int) (int, error) {
		return v, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got.Results)
	assert.True(t, got.Ok())
}

func TestParallelMap_CancellationMarksRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	items := make([]int, 20)
	done := make(chan *MapResult[int], 1)
	go func() {
		got, _ := ParallelMap(ctx, items, func(c context.Context, _ int) (int, error) {
			select {
			case <-release:
				return 1, nil
			case <-c.Done():
				return 0, c.Err()
			}
		}, WithConcurrency(2))
		done <- got
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	close(release)

	got := <-done
	assert.NotEmpty(t, got.Failed)
}

func TestParallelMap_RecordsStageMetrics(t *testing.T) {
	m := NewNoopPipelineMetrics()
	_, err := ParallelMap(context.Background(), []int{1, 2, 3}, func(_ context.Context, v int) (int, error) {
		return v, nil
	}, WithStage("normalize"), WithMetrics(m))
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.StageCount())
}

func TestNewPrometheusPipelineMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusPipelineMetrics(reg)
	require.NoError(t, err)

	m.RecordStage(context.Background(), "normalize", 10, 12.5)
	m.RecordSkippedRecord(context.Background(), "missing_id")
	m.RecordTraining(context.Background(), 100, 250, true)
	m.RecordRun(context.Background(), 100, 900, true)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// Same registry refuses duplicate registration.
	_, err = NewPrometheusPipelineMetrics(reg)
	assert.Error(t, err)
}
