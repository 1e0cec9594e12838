// internal/artifacts/encoder.go
package artifacts

import (
	"encoding/json"
	"fmt"
	"sort"

	"credx-fairscore/internal/common/errors"
)

// Encoder keys the pipeline requires.
const (
	EncoderRegion     = "region"
	EncoderEmployment = "employment_type"
)

// LabelEncoder maps class labels to their position in Classes.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	codes map[string]int
}

func (e *LabelEncoder) build() error {
	e.codes = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		if _, dup := e.codes[c]; dup {
			return fmt.Errorf("duplicate class %q", c)
		}
		e.codes[c] = i
	}
	return nil
}

// Len returns the number of known classes.
func (e *LabelEncoder) Len() int {
	return len(e.Classes)
}

// Transform returns the integer code of label.
func (e *LabelEncoder) Transform(label string) (int, error) {
	code, ok := e.codes[label]
	if !ok {
		return 0, fmt.Errorf("label %q not among encoder classes %v", label, e.Classes)
	}
	return code, nil
}

// InverseTransform returns the label of code.
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("code %d outside encoder range [0,%d)", code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// Sorted reports whether the classes are in lexical order. Encoders fitted
// offline always are; an unsorted list means the codes were assigned by hand.
func (e *LabelEncoder) Sorted() bool {
	return sort.StringsAreSorted(e.Classes)
}

// LabelEncoders is the set of categorical encoders keyed by column.
type LabelEncoders map[string]*LabelEncoder

// ParseLabelEncoders decodes the encoder artifact and requires the region and
// employment encoders.
func ParseLabelEncoders(data []byte) (LabelEncoders, error) {
	var encs LabelEncoders
	if err := json.Unmarshal(data, &encs); err != nil {
		return nil, errors.NewArtifactMismatchError("label_encoders", fmt.Sprintf("decode: %v", err))
	}
	for _, key := range []string{EncoderRegion, EncoderEmployment} {
		enc, ok := encs[key]
		if !ok || enc == nil || enc.Len() == 0 {
			return nil, errors.NewArtifactMismatchError("label_encoders", fmt.Sprintf("missing encoder %q", key))
		}
	}
	for key, enc := range encs {
		if enc == nil {
			delete(encs, key)
			continue
		}
		if err := enc.build(); err != nil {
			return nil, errors.NewArtifactMismatchError("label_encoders", fmt.Sprintf("%s: %v", key, err))
		}
	}
	return encs, nil
}

// Region returns the region encoder.
func (l LabelEncoders) Region() *LabelEncoder {
	return l[EncoderRegion]
}

// Employment returns the employment-type encoder.
func (l LabelEncoders) Employment() *LabelEncoder {
	return l[EncoderEmployment]
}
