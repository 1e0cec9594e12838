// internal/artifacts/scaler.go
package artifacts

import (
	"encoding/json"
	"fmt"

	"credx-fairscore/internal/common/errors"
)

// StandardScaler applies (x - mean) / scale per column, as fitted offline.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ParseStandardScaler decodes a scaler artifact. A zero scale is read as 1,
// which is how constant training columns are stored.
func ParseStandardScaler(data []byte) (*StandardScaler, error) {
	var s StandardScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.NewArtifactMismatchError("scaler", fmt.Sprintf("decode: %v", err))
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, errors.NewArtifactMismatchError("scaler",
			fmt.Sprintf("mean has %d columns, scale has %d", len(s.Mean), len(s.Scale)))
	}
	for i, v := range s.Scale {
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return &s, nil
}

// NFeatures returns the number of columns the scaler was fitted on.
func (s *StandardScaler) NFeatures() int {
	return len(s.Mean)
}

// Transform scales one row. The input is left untouched.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, errors.NewFeatureShapeError(len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}
