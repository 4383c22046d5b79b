package inference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// logistic is a fitted (multinomial or binary) logistic regression.
type logistic struct {
	nFeatures int
	classes   []int
	coef      *mat.Dense // rows = decision functions, cols = features
	intercept []float64
}

func newLogistic(f modelFile) (*logistic, error) {
	if len(f.Coef) == 0 {
		return nil, fmt.Errorf("logistic_regression has no coefficients")
	}
	nFeatures := len(f.Coef[0])
	if f.NFeatures != 0 && f.NFeatures != nFeatures {
		return nil, fmt.Errorf("n_features=%d but coef rows have %d columns", f.NFeatures, nFeatures)
	}
	wantRows := len(f.Classes)
	if wantRows == 2 {
		wantRows = 1
	}
	if len(f.Coef) != wantRows || len(f.Intercept) != wantRows {
		return nil, fmt.Errorf("%d classes need %d coef rows and intercepts, got %d and %d",
			len(f.Classes), wantRows, len(f.Coef), len(f.Intercept))
	}
	data := make([]float64, 0, wantRows*nFeatures)
	for i, row := range f.Coef {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("coef row %d has %d columns, want %d", i, len(row), nFeatures)
		}
		data = append(data, row...)
	}
	return &logistic{
		nFeatures: nFeatures,
		classes:   f.Classes,
		coef:      mat.NewDense(wantRows, nFeatures, data),
		intercept: f.Intercept,
	}, nil
}

func (l *logistic) Kind() string     { return KindLogisticRegression }
func (l *logistic) NumFeatures() int { return l.nFeatures }
func (l *logistic) Classes() []int   { return l.classes }

func (l *logistic) PredictProba(x mat.Matrix) *mat.Dense {
	rows, _ := x.Dims()
	var z mat.Dense
	z.Mul(x, l.coef.T())

	out := mat.NewDense(rows, len(l.classes), nil)
	for i := range rows {
		scores := z.RawRowView(i)
		floats.Add(scores, l.intercept)
		if len(l.classes) == 2 {
			p := 1 / (1 + math.Exp(-scores[0]))
			out.SetRow(i, []float64{1 - p, p})
			continue
		}
		out.SetRow(i, softmax(scores))
	}
	return out
}

func softmax(z []float64) []float64 {
	out := make([]float64, len(z))
	maxZ := floats.Max(z)
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
