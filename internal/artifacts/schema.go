// Package artifacts loads the pre-trained model artifacts the credit pipeline
// reads at request time: the feature schema, the fitted scaler, the label
// encoders, and the income and default-risk models.
package artifacts

import (
	"encoding/json"
	"fmt"
	"sort"

	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
)

// FeatureSchema is the ordered list of base feature names the scaler and the
// classifiers were fitted on.
type FeatureSchema struct {
	Features []string `json:"all_features"`

	index map[string]int
}

// ParseFeatureSchema decodes a feature-schema artifact and enforces its width.
func ParseFeatureSchema(data []byte) (*FeatureSchema, error) {
	var s FeatureSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.NewArtifactMismatchError("feature_schema", fmt.Sprintf("decode: %v", err))
	}
	if len(s.Features) != models.BaseFeatureCount {
		return nil, errors.NewArtifactMismatchError("feature_schema",
			fmt.Sprintf("schema lists %d features, expected %d", len(s.Features), models.BaseFeatureCount))
	}
	s.index = make(map[string]int, len(s.Features))
	for i, name := range s.Features {
		if _, dup := s.index[name]; dup {
			return nil, errors.NewArtifactMismatchError("feature_schema", fmt.Sprintf("duplicate feature %q", name))
		}
		s.index[name] = i
	}
	return &s, nil
}

// Len returns the number of features in the schema.
func (s *FeatureSchema) Len() int {
	return len(s.Features)
}

// Index returns the position of name in the schema.
func (s *FeatureSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Unknown returns the schema names the feature engineer does not produce.
// They read as zero at request time.
func (s *FeatureSchema) Unknown(known []string) []string {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var out []string
	for _, name := range s.Features {
		if _, ok := set[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
