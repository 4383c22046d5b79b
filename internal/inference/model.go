package inference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model kinds understood by the loader.
const (
	KindRandomForest       = "random_forest"
	KindDecisionTree       = "decision_tree"
	KindLogisticRegression = "logistic_regression"
)

type modelFile struct {
	Kind      string      `json:"kind"`
	NFeatures int         `json:"n_features"`
	Classes   []int       `json:"classes"`
	Trees     []treeFile  `json:"trees"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// classifier returns one probability row per input row, columns ordered as Classes.
type classifier interface {
	Kind() string
	NumFeatures() int
	Classes() []int
	PredictProba(x mat.Matrix) *mat.Dense
}

func newClassifier(f modelFile) (classifier, error) {
	if len(f.Classes) < 2 {
		return nil, fmt.Errorf("model needs at least two classes, got %d", len(f.Classes))
	}
	switch f.Kind {
	case KindRandomForest, KindDecisionTree:
		return newForest(f)
	case KindLogisticRegression:
		return newLogistic(f)
	default:
		return nil, fmt.Errorf("unknown model kind %q", f.Kind)
	}
}
