package inference

import (
	"errors"
	"fmt"
)

type encoderFile struct {
	Classes []string `json:"classes"`
}

// LabelEncoder maps class codes back to their training labels.
type LabelEncoder struct {
	classes []string
}

func newLabelEncoder(f encoderFile) (*LabelEncoder, error) {
	if len(f.Classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}
	for i, c := range f.Classes {
		if c == "" {
			return nil, fmt.Errorf("label encoder class %d is empty", i)
		}
	}
	return &LabelEncoder{classes: f.Classes}, nil
}

// Classes returns the known labels ordered by code.
func (e *LabelEncoder) Classes() []string { return e.classes }

// InverseTransform returns the label for code.
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("class code %d outside label encoder range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}
