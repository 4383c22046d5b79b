package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// NumModelInputs is the width of the classifier input: scaled continuous
// features followed by the six cyclical time columns.
const NumModelInputs = domain.NumContinuous + domain.NumTimeEncoded

// Paths locates the trained artifact files.
type Paths struct {
	Model   string
	Scaler  string
	Encoder string
}

// Status is the load outcome of one artifact.
type Status struct {
	Name string
	Path string
	Err  error
}

// Loaded reports whether the artifact is usable.
func (s Status) Loaded() bool { return s.Err == nil }

// Artifacts holds each trained artifact or the reason it failed to load.
// It is immutable after LoadArtifacts returns.
type Artifacts struct {
	scaler  *Scaler
	model   classifier
	encoder *LabelEncoder

	statuses []Status
}

// LoadArtifacts reads all three artifacts. It never fails as a whole: each
// artifact records its own error, and the consistency checks between them
// are attributed to the model.
func LoadArtifacts(p Paths) *Artifacts {
	a := &Artifacts{}

	var sf scalerFile
	scalerErr := readJSON(p.Scaler, &sf)
	if scalerErr == nil {
		a.scaler, scalerErr = newScaler(sf)
	}

	var mf modelFile
	modelErr := readJSON(p.Model, &mf)
	if modelErr == nil {
		a.model, modelErr = newClassifier(mf)
	}

	var ef encoderFile
	encoderErr := readJSON(p.Encoder, &ef)
	if encoderErr == nil {
		a.encoder, encoderErr = newLabelEncoder(ef)
	}

	if modelErr == nil {
		modelErr = a.checkModel()
		if modelErr != nil {
			a.model = nil
		}
	}

	a.statuses = []Status{
		{Name: "scaler", Path: p.Scaler, Err: scalerErr},
		{Name: "model", Path: p.Model, Err: modelErr},
		{Name: "label encoder", Path: p.Encoder, Err: encoderErr},
	}
	return a
}

func (a *Artifacts) checkModel() error {
	if n := a.model.NumFeatures(); n != NumModelInputs {
		return fmt.Errorf("model expects %d features, pipeline produces %d", n, NumModelInputs)
	}
	if a.encoder == nil {
		return nil
	}
	for _, c := range a.model.Classes() {
		if c < 0 || c >= len(a.encoder.Classes()) {
			return fmt.Errorf("model class %d has no label in the encoder", c)
		}
	}
	return nil
}

// Available reports whether every artifact loaded.
func (a *Artifacts) Available() bool {
	return a.Err() == nil
}

// Err joins the load errors of all failed artifacts, or returns nil.
func (a *Artifacts) Err() error {
	var errs []error
	for _, s := range a.statuses {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Statuses returns the per-artifact load outcome in a fixed order.
func (a *Artifacts) Statuses() []Status { return a.statuses }

// Labels returns the label encoder classes, or nil when it failed to load.
func (a *Artifacts) Labels() []string {
	if a.encoder == nil {
		return nil
	}
	return a.encoder.Classes()
}

// ModelKind returns the loaded model kind, or "" when it failed to load.
func (a *Artifacts) ModelKind() string {
	if a.model == nil {
		return ""
	}
	return a.model.Kind()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
