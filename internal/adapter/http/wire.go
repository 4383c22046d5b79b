package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
)

const maxBodyBytes = 1 << 20

// gridInput is one direct-mode row. Pointers detect omitted fields.
type gridInput struct {
	Elevation       *float64 `json:"Elevation"`
	RoadDensity     *float64 `json:"Road_Density"`
	RainMM          *float64 `json:"Rain_mm"`
	RainPast3h      *float64 `json:"Rain_Past3h"`
	DrainWaterLevel *float64 `json:"Drain_Water_Level"`
	SoilMoisture    *float64 `json:"Soil_Moisture"`
	HourOfDay       *int     `json:"hour_of_day"`
	Month           *int     `json:"month"`
	DayOfWeek       *int     `json:"day_of_week"`
}

type multiGridRequest struct {
	Grids []gridInput `json:"grids"`
}

type multiGridResponse struct {
	Results []domain.PredictionResult `json:"results"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	pipeline.TimeFields
}

type datasetRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	GridID    *int64   `json:"grid_id"`
	Timestamp *string  `json:"timestamp"`
	pipeline.TimeFields
}

func (g gridInput) featureVector(i int) (domain.FeatureVector, error) {
	floats := []struct {
		name string
		v    *float64
	}{
		{"Elevation", g.Elevation},
		{"Road_Density", g.RoadDensity},
		{"Rain_mm", g.RainMM},
		{"Rain_Past3h", g.RainPast3h},
		{"Drain_Water_Level", g.DrainWaterLevel},
		{"Soil_Moisture", g.SoilMoisture},
	}
	for _, f := range floats {
		if f.v == nil {
			return domain.FeatureVector{}, domain.Invalidf("grids[%d].%s is required", i, f.name)
		}
	}
	ints := []struct {
		name string
		v    *int
	}{
		{"hour_of_day", g.HourOfDay},
		{"month", g.Month},
		{"day_of_week", g.DayOfWeek},
	}
	for _, f := range ints {
		if f.v == nil {
			return domain.FeatureVector{}, domain.Invalidf("grids[%d].%s is required", i, f.name)
		}
	}
	return domain.NewFeatureVector(
		domain.ContinuousFeatures{
			Elevation:       *g.Elevation,
			RoadDensity:     *g.RoadDensity,
			RainMM:          *g.RainMM,
			RainPast3h:      *g.RainPast3h,
			DrainWaterLevel: *g.DrainWaterLevel,
			SoilMoisture:    *g.SoilMoisture,
		},
		domain.TimeComponents{HourOfDay: *g.HourOfDay, Month: *g.Month, DayOfWeek: *g.DayOfWeek},
	), nil
}

// decodeBody reads a JSON body into v. Malformed bodies are validation errors.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return domain.Invalidf("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return domain.Invalidf("request body is empty")
		default:
			return domain.Invalidf("invalid request body: %v", err)
		}
	}
	if dec.More() {
		return domain.Invalidf("invalid request body: trailing data after JSON object")
	}
	return nil
}
