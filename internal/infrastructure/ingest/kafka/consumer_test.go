package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// fakeReader replays a fixed message sequence, then blocks until the fetch
// context ends.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafkago.Message
	next      int
	committed int
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	f.mu.Lock()
	if f.next < len(f.msgs) {
		m := f.msgs[f.next]
		f.next++
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed += len(msgs)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func encoded(t *testing.T, id string, offset int64) kafkago.Message {
	t.Helper()
	r := review.Review{
		ID:        id,
		BrandID:   "acmephen",
		RawText:   "fine",
		Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	return kafkago.Message{Value: data, Offset: offset}
}

func testConsumer(r reader, batchSize int, window time.Duration) *Consumer {
	cfg := config.KafkaConfig{BatchSize: batchSize, BatchWindow: window}
	return newConsumer(r, cfg, logging.NewNopLogger(), nil)
}

func TestRun_BatchesBySizeAndSkipsGarbage(t *testing.T) {
	r := &fakeReader{msgs: []kafkago.Message{
		encoded(t, "r1", 0),
		encoded(t, "r2", 1),
		{Value: []byte("not json"), Offset: 2},
		encoded(t, "r3", 3),
		encoded(t, "r4", 4),
	}}
	c := testConsumer(r, 2, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []review.Review, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(_ context.Context, b []review.Review) error {
			batches <- b
			return nil
		})
	}()

	first := <-batches
	second := <-batches
	cancel()
	err := <-done

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, "r1", first[0].ID)
	assert.Equal(t, "r4", second[1].ID)
	assert.EqualValues(t, 4, c.Consumed())
	assert.EqualValues(t, 1, c.Skipped())
	assert.Equal(t, 5, r.committed)
	assert.True(t, r.closed)
}

func TestRun_FlushesPartialBatchOnWindow(t *testing.T) {
	r := &fakeReader{msgs: []kafkago.Message{
		encoded(t, "r1", 0),
		encoded(t, "r2", 1),
		encoded(t, "r3", 2),
	}}
	c := testConsumer(r, 10, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan []review.Review, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(_ context.Context, b []review.Review) error {
			batches <- b
			return nil
		})
	}()

	select {
	case b := <-batches:
		require.Len(t, b, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("window flush never fired")
	}
	cancel()
	<-done
}

func TestRun_HandlerErrorStopsConsumer(t *testing.T) {
	r := &fakeReader{msgs: []kafkago.Message{encoded(t, "r1", 0)}}
	c := testConsumer(r, 1, time.Minute)

	wantErr := assert.AnError
	err := c.Run(context.Background(), func(context.Context, []review.Review) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, r.committed, "failed batch must not commit offsets")
}

func TestRun_NilHandler(t *testing.T) {
	c := testConsumer(&fakeReader{}, 1, time.Minute)
	require.Error(t, c.Run(context.Background(), nil))
}

func TestNewConsumer_RequiresEndpoints(t *testing.T) {
	_, err := NewConsumer(config.KafkaConfig{}, logging.NewNopLogger(), nil)
	require.Error(t, err)
}
