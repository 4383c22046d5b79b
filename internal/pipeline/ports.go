package pipeline

import "github.com/couchcryptid/flood-risk-service/internal/domain"

// Classifier scores validated feature vectors, preserving order.
type Classifier interface {
	Predict(rows []domain.FeatureVector) ([]domain.PredictionResult, error)
	Available() bool
}

// GridLocator maps a coordinate to the containing grid cell.
type GridLocator interface {
	LookupGridID(lat, lon float64) (int64, bool, error)
}

// RowResolver picks the historical row for a grid cell and calendar slot.
type RowResolver interface {
	Resolve(gridID int64, month, hour int) (domain.HistoricalRow, domain.RowMatch, error)
}

// EventSink receives an audit event per prediction. Publish must not block.
type EventSink interface {
	Publish(event domain.PredictionEvent)
}
