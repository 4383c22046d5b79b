package domain

import (
	"time"

	"github.com/google/uuid"
)

// Prediction modes, used as event and metric labels.
const (
	ModeGrid     = "grid"
	ModeLocation = "location"
	ModeDataset  = "dataset"
)

// PredictionEvent is an audit record of one classified feature vector,
// published to the event stream when enabled.
type PredictionEvent struct {
	ID          string           `json:"id"`
	Mode        string           `json:"mode"`
	GridID      *int64           `json:"grid_id,omitempty"`
	Location    *Coordinates     `json:"location,omitempty"`
	Features    FeatureVector    `json:"features"`
	Prediction  PredictionResult `json:"prediction"`
	PredictedAt time.Time        `json:"predicted_at"`
}

// NewPredictionEvent stamps a fresh id and the current UTC time.
func NewPredictionEvent(mode string, fv FeatureVector, result PredictionResult) PredictionEvent {
	return PredictionEvent{
		ID:          uuid.NewString(),
		Mode:        mode,
		Features:    fv,
		Prediction:  result,
		PredictedAt: clock.Now().UTC(),
	}
}
