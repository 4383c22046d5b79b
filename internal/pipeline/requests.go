package pipeline

import "github.com/couchcryptid/flood-risk-service/internal/domain"

// TimeFields are optional calendar overrides; nil fields default to now.
type TimeFields struct {
	HourOfDay *int `json:"hour_of_day,omitempty"`
	Month     *int `json:"month,omitempty"`
	DayOfWeek *int `json:"day_of_week,omitempty"`
}

// LocationRequest asks for a prediction from coordinates alone.
type LocationRequest struct {
	Latitude  float64
	Longitude float64
	TimeFields
}

// LocationResponse echoes the heuristic inputs alongside the prediction.
type LocationResponse struct {
	Location        domain.Coordinates        `json:"location"`
	DerivedFeatures domain.ContinuousFeatures `json:"derived_features"`
	TimeUsed        domain.TimeComponents     `json:"time_used"`
	Prediction      domain.PredictionResult   `json:"prediction"`
}

// DatasetRequest identifies a grid cell by id or coordinates, and a time by
// timestamp, explicit fields, or now.
type DatasetRequest struct {
	Latitude  *float64
	Longitude *float64
	GridID    *int64
	Timestamp *string
	TimeFields
}

// UsedRow is the dataset row after gap filling.
type UsedRow struct {
	domain.ContinuousFeatures
	Hour   string          `json:"Hour"`
	Match  domain.RowMatch `json:"match"`
	Filled []string        `json:"filled,omitempty"`
}

// DatasetResponse returns the resolved row for auditability.
type DatasetResponse struct {
	GridID     int64                   `json:"grid_id"`
	UsedRow    UsedRow                 `json:"used_row"`
	TimeUsed   domain.TimeComponents   `json:"time_used"`
	Prediction domain.PredictionResult `json:"prediction"`
}

// hourLayout renders dataset hours as naive wall-clock times.
const hourLayout = "2006-01-02T15:04:05"
