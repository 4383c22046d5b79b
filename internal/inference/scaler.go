package inference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Scaler kinds exported from the training notebook.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

type scalerFile struct {
	Kind  string    `json:"kind"`
	Mean  []float64 `json:"mean"`
	Min   []float64 `json:"min"`
	Scale []float64 `json:"scale"`
}

// Scaler applies a pre-fit per-column affine transform to the continuous block.
// Standard: (x - mean) / scale. MinMax: x*scale + min.
type Scaler struct {
	kind   string
	offset []float64
	scale  []float64
}

func newScaler(f scalerFile) (*Scaler, error) {
	var offset []float64
	switch f.Kind {
	case ScalerStandard, "":
		f.Kind = ScalerStandard
		offset = f.Mean
	case ScalerMinMax:
		offset = f.Min
	default:
		return nil, fmt.Errorf("unknown scaler kind %q", f.Kind)
	}
	if len(offset) != domain.NumContinuous || len(f.Scale) != domain.NumContinuous {
		return nil, fmt.Errorf("%s scaler expects %d columns, got offset=%d scale=%d",
			f.Kind, domain.NumContinuous, len(offset), len(f.Scale))
	}
	scale := make([]float64, len(f.Scale))
	for i, s := range f.Scale {
		// sklearn stores 1 for constant columns; guard hand-written files too.
		if s == 0 {
			s = 1
		}
		scale[i] = s
	}
	return &Scaler{kind: f.Kind, offset: offset, scale: scale}, nil
}

// Kind reports the scaler variant.
func (s *Scaler) Kind() string { return s.kind }

// Transform writes the scaled continuous block of x into dst, column by column.
// x must have NumContinuous columns; dst must match its shape.
func (s *Scaler) Transform(dst *mat.Dense, x mat.Matrix) {
	dst.Apply(func(_, j int, v float64) float64 {
		if s.kind == ScalerMinMax {
			return v*s.scale[j] + s.offset[j]
		}
		return (v - s.offset[j]) / s.scale[j]
	}, x)
}
