package inference

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// CapabilityModel names the classifier capability in unavailable errors.
const CapabilityModel = "model artifacts"

// Predictor turns feature vectors into labelled predictions using the loaded
// artifacts. It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	artifacts *Artifacts
}

// NewPredictor creates a predictor over a, which may be partially loaded.
func NewPredictor(a *Artifacts) *Predictor {
	return &Predictor{artifacts: a}
}

// Available reports whether Predict can serve requests.
func (p *Predictor) Available() bool { return p.artifacts.Available() }

// Predict classifies rows in order. Rows are assumed validated.
func (p *Predictor) Predict(rows []domain.FeatureVector) ([]domain.PredictionResult, error) {
	if err := p.artifacts.Err(); err != nil {
		return nil, domain.Unavailable(CapabilityModel, err)
	}
	if len(rows) == 0 {
		return nil, domain.Invalidf("No input rows provided")
	}

	x := p.Transform(rows)
	proba := p.artifacts.model.PredictProba(x)
	classes := p.artifacts.model.Classes()

	out := make([]domain.PredictionResult, len(rows))
	for i := range rows {
		dist := proba.RawRowView(i)
		best := floats.MaxIdx(dist)
		code := classes[best]
		label, err := p.artifacts.encoder.InverseTransform(code)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = domain.PredictionResult{
			Class:      code,
			Label:      label,
			Confidence: domain.ConfidencePercent(dist[best]),
		}
	}
	return out, nil
}

// Transform builds the n x 12 model input: the scaled continuous block, then
// hour_sin, hour_cos, month_sin, month_cos, dow_sin, dow_cos. It requires a
// loaded scaler.
func (p *Predictor) Transform(rows []domain.FeatureVector) *mat.Dense {
	n := len(rows)
	raw := mat.NewDense(n, domain.NumContinuous, nil)
	x := mat.NewDense(n, NumModelInputs, nil)
	for i, r := range rows {
		v := r.ContinuousFeatures.Values()
		raw.SetRow(i, v[:])
		enc := domain.EncodeTime(r.TimeComponents)
		for j, e := range enc {
			x.Set(i, domain.NumContinuous+j, e)
		}
	}
	scaled := x.Slice(0, n, 0, domain.NumContinuous).(*mat.Dense)
	p.artifacts.scaler.Transform(scaled, raw)
	return x
}
