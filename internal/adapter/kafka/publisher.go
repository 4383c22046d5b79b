package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	drainTimeout   = 5 * time.Second
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher streams prediction events to a Kafka topic in batches.
// It implements pipeline.EventSink. Publish never blocks the request path:
// when the buffer is full the event is dropped and counted.
type Publisher struct {
	writer        messageWriter
	events        chan domain.PredictionEvent
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewPublisher creates a producer for the configured prediction topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPredictionTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newPublisher(w, cfg.BatchSize, cfg.BatchFlushInterval, cfg.EventBufferSize, logger, metrics)
}

func newPublisher(w messageWriter, batchSize int, flushInterval time.Duration, bufferSize int, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{
		writer:        w,
		events:        make(chan domain.PredictionEvent, bufferSize),
		batchSize:     max(batchSize, 1),
		flushInterval: flushInterval,
		logger:        logger,
		metrics:       metrics,
	}
}

// Publish enqueues an event without blocking.
func (p *Publisher) Publish(event domain.PredictionEvent) {
	select {
	case p.events <- event:
	default:
		p.metrics.EventsDropped.Inc()
	}
}

// Run flushes buffered events every batchSize events or flushInterval,
// whichever comes first, until the context is cancelled. Events still
// buffered at shutdown get one final write attempt.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("event publisher started", "batch_size", p.batchSize, "flush_interval", p.flushInterval)
	p.metrics.EventPublisherRunning.Set(1)
	defer p.metrics.EventPublisherRunning.Set(0)

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.PredictionEvent, 0, p.batchSize)
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.drain(ctx, batch)
			p.logger.Info("event publisher stopping", "reason", ctx.Err())
			return nil
		case ev := <-p.events:
			batch = append(batch, ev)
			if len(batch) < p.batchSize {
				continue
			}
		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
		}

		if !p.flush(ctx, batch, &backoff) {
			p.drain(ctx, batch)
			p.logger.Info("event publisher stopping", "reason", ctx.Err())
			return nil
		}
		batch = batch[:0]
	}
}

// flush writes the batch, retrying with exponential backoff until it succeeds
// or the context is cancelled. Returns false if the publisher should stop.
func (p *Publisher) flush(ctx context.Context, batch []domain.PredictionEvent, backoff *time.Duration) bool {
	for {
		err := p.write(ctx, batch)
		if err == nil {
			*backoff = initialBackoff
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.metrics.EventPublishErrors.Inc()
		p.logger.Error("publish prediction events failed", "error", err, "batch_size", len(batch), "retry_in", *backoff)
		if !retry.SleepWithContext(ctx, *backoff) {
			return false
		}
		*backoff = retry.NextBackoff(*backoff, maxBackoff)
	}
}

// drain makes a single bounded attempt to write the pending batch plus
// whatever is still buffered.
func (p *Publisher) drain(ctx context.Context, batch []domain.PredictionEvent) {
buffered:
	for {
		select {
		case ev := <-p.events:
			batch = append(batch, ev)
		default:
			break buffered
		}
	}
	if len(batch) == 0 {
		return
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	if err := p.write(drainCtx, batch); err != nil {
		p.metrics.EventPublishErrors.Inc()
		p.metrics.EventsDropped.Add(float64(len(batch)))
		p.logger.Warn("dropping prediction events at shutdown", "error", err, "count", len(batch))
	}
}

func (p *Publisher) write(ctx context.Context, batch []domain.PredictionEvent) error {
	msgs := make([]kafkago.Message, 0, len(batch))
	for i := range batch {
		msg, err := serializeToMessage(batch[i])
		if err != nil {
			p.metrics.EventsDropped.Inc()
			p.logger.Warn("skipping unserializable prediction event", "error", err, "id", batch[i].ID)
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	p.metrics.EventsPublished.Add(float64(len(msgs)))
	p.metrics.EventBatchSize.Observe(float64(len(msgs)))
	return nil
}

// Close releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a PredictionEvent into a Kafka message keyed by
// grid id when known, so events for one cell stay on one partition.
func serializeToMessage(event domain.PredictionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	key := event.ID
	if event.GridID != nil {
		key = strconv.FormatInt(*event.GridID, 10)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(event.Mode)},
			{Key: "label", Value: []byte(event.Prediction.Label)},
			{Key: "predicted_at", Value: []byte(event.PredictedAt.Format(time.RFC3339))},
		},
	}, nil
}
