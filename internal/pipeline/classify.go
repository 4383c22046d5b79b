package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// eventContext carries the request-level identifiers attached to an event.
type eventContext struct {
	gridID   *int64
	location *domain.Coordinates
}

// classify is the step shared by every mode: score, count, publish.
func (p *Pipeline) classify(ctx context.Context, mode string, rows []domain.FeatureVector, events []eventContext) ([]domain.PredictionResult, error) {
	results, err := p.classifier.Predict(rows)
	if err != nil {
		return nil, err
	}
	if len(results) != len(rows) {
		return nil, fmt.Errorf("classifier returned %d results for %d rows", len(results), len(rows))
	}

	for i, r := range results {
		p.metrics.Predictions.WithLabelValues(mode, r.Label).Inc()
		if p.sink == nil {
			continue
		}
		ev := domain.NewPredictionEvent(mode, rows[i], r)
		ev.GridID = events[i].gridID
		ev.Location = events[i].location
		p.sink.Publish(ev)
	}
	p.logger.DebugContext(ctx, "classified", "mode", mode, "rows", len(rows))
	return results, nil
}
