package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// fakeWriter records written batches and fails the first failures calls.
type fakeWriter struct {
	mu       sync.Mutex
	batches  [][]kafkago.Message
	failures int
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.batches = append(w.batches, append([]kafkago.Message(nil), msgs...))
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func (w *fakeWriter) sizes() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, len(w.batches))
	for i, b := range w.batches {
		out[i] = len(b)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(id string) domain.PredictionEvent {
	grid := int64(17)
	return domain.PredictionEvent{
		ID:     id,
		Mode:   domain.ModeDataset,
		GridID: &grid,
		Features: domain.NewFeatureVector(
			domain.ContinuousFeatures{Elevation: 205, RoadDensity: 0.8, RainMM: 15, RainPast3h: 8, DrainWaterLevel: 1.8, SoilMoisture: 0.9},
			domain.TimeComponents{HourOfDay: 14, Month: 7, DayOfWeek: 1},
		),
		Prediction:  domain.PredictionResult{Class: 0, Label: "High", Confidence: 91.5},
		PredictedAt: time.Date(2025, 7, 15, 8, 30, 0, 0, time.UTC),
	}
}

func runPublisher(t *testing.T, p *Publisher) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return func() {
		stop()
		require.NoError(t, <-done)
	}
}

func TestSerializeToMessage(t *testing.T) {
	event := testEvent("evt-1")

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("17"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("dataset"), msg.Headers[0].Value)
	assert.Equal(t, "label", msg.Headers[1].Key)
	assert.Equal(t, []byte("High"), msg.Headers[1].Value)
	assert.Equal(t, "predicted_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2025-07-15T08:30:00Z"), msg.Headers[2].Value)

	var decoded domain.PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestSerializeToMessage_KeysByIDWithoutGrid(t *testing.T) {
	event := testEvent("evt-2")
	event.GridID = nil
	event.Mode = domain.ModeGrid

	msg, err := serializeToMessage(event)
	require.NoError(t, err)
	assert.Equal(t, []byte("evt-2"), msg.Key)
	assert.NotContains(t, string(msg.Value), "grid_id")
}

func TestPublisher_FlushesFullBatch(t *testing.T) {
	w := &fakeWriter{}
	m := observability.NewMetricsForTesting()
	p := newPublisher(w, 3, time.Hour, 16, discardLogger(), m)
	stop := runPublisher(t, p)

	for _, id := range []string{"a", "b", "c"} {
		p.Publish(testEvent(id))
	}
	require.Eventually(t, func() bool { return w.count() == 3 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, []int{3}, w.sizes())
	assert.InDelta(t, 3, testutil.ToFloat64(m.EventsPublished), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.EventPublisherRunning), 0)
}

func TestPublisher_FlushesOnInterval(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, 100, 20*time.Millisecond, 16, discardLogger(), observability.NewMetricsForTesting())
	stop := runPublisher(t, p)
	defer stop()

	p.Publish(testEvent("a"))
	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPublisher_DrainsOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, 100, time.Hour, 16, discardLogger(), observability.NewMetricsForTesting())
	stop := runPublisher(t, p)

	p.Publish(testEvent("a"))
	p.Publish(testEvent("b"))
	stop()

	assert.Equal(t, 2, w.count())
}

func TestPublisher_RetriesFailedWrite(t *testing.T) {
	w := &fakeWriter{failures: 2}
	m := observability.NewMetricsForTesting()
	p := newPublisher(w, 1, time.Hour, 16, discardLogger(), m)
	stop := runPublisher(t, p)
	defer stop()

	p.Publish(testEvent("a"))
	require.Eventually(t, func() bool { return w.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.InDelta(t, 2, testutil.ToFloat64(m.EventPublishErrors), 0)
}

func TestPublisher_DropsWhenBufferFull(t *testing.T) {
	m := observability.NewMetricsForTesting()
	p := newPublisher(&fakeWriter{}, 10, time.Hour, 2, discardLogger(), m)

	// Not running: the buffer fills and the rest are dropped without blocking.
	for _, id := range []string{"a", "b", "c", "d"} {
		p.Publish(testEvent(id))
	}
	assert.InDelta(t, 2, testutil.ToFloat64(m.EventsDropped), 0)
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, 1, time.Second, 1, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
