// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default returns the registry of the stock model bundle.
func Default() *ModelRegistry {
	return &ModelRegistry{
		Version:       "1.0.0",
		FeatureSchema: "feature_names.json",
		Scaler:        "feature_scaler.json",
		Encoders:      "label_encoders.json",
		IncomeModel:   "income_verification_model.json",
		Scorers: []ScorerEntry{
			{
				Name:          "Region-Aware XGBoost",
				Artifact:      "xgb_region_aware.json",
				Role:          RolePrimary,
				Layout:        LayoutRegionAware,
				ExpectedWidth: 35,
				Description:   "Gradient-boosted classifier with one-hot region block",
			},
			{
				Name:          "Fair XGBoost",
				Artifact:      "fair_xgb.json",
				Role:          RoleComparison,
				Layout:        LayoutFair,
				ExpectedWidth: 30,
				Description:   "Gradient-boosted classifier without region indicators",
			},
		},
	}
}

// LoadRegistry reads a registry manifest. An empty path yields Default().
func LoadRegistry(path string) (*ModelRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ModelRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return &reg, nil
}

// Validate checks the manifest is usable by the pipeline.
func (r *ModelRegistry) Validate() error {
	if r.FeatureSchema == "" || r.Scaler == "" || r.Encoders == "" {
		return fmt.Errorf("featureSchema, scaler and encoders are required")
	}
	primaries := 0
	seen := make(map[string]bool, len(r.Scorers))
	for _, s := range r.Scorers {
		if s.Name == "" || s.Artifact == "" {
			return fmt.Errorf("scorer entries need a name and an artifact")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate scorer %q", s.Name)
		}
		seen[s.Name] = true

		switch s.Role {
		case RolePrimary:
			primaries++
		case RoleComparison:
		default:
			return fmt.Errorf("scorer %q has unknown role %q", s.Name, s.Role)
		}
		if s.Layout != LayoutRegionAware && s.Layout != LayoutFair {
			return fmt.Errorf("scorer %q has unknown layout %q", s.Name, s.Layout)
		}
		if s.ExpectedWidth <= 0 {
			return fmt.Errorf("scorer %q needs a positive expectedWidth", s.Name)
		}
	}
	if primaries != 1 {
		return fmt.Errorf("exactly one primary scorer required, found %d", primaries)
	}
	return nil
}

// Primary returns the authoritative scorer entry.
func (r *ModelRegistry) Primary() (ScorerEntry, bool) {
	for _, s := range r.Scorers {
		if s.Role == RolePrimary {
			return s, true
		}
	}
	return ScorerEntry{}, false
}

// Save writes the manifest as indented JSON.
func (r *ModelRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Rename sets the display name of the first scorer with the given role.
// An empty name leaves the registry unchanged.
func (r *ModelRegistry) Rename(role, name string) {
	if name == "" {
		return
	}
	for i := range r.Scorers {
		if r.Scorers[i].Role == role {
			r.Scorers[i].Name = name
			return
		}
	}
}
