// pkg/registry/schema.go
package registry

// Scorer roles.
const (
	RolePrimary    = "primary"
	RoleComparison = "comparison"
)

// Vector layouts a scorer can consume.
const (
	LayoutRegionAware = "region_aware"
	LayoutFair        = "fair"
)

// ModelRegistry names the artifact keys backing every pipeline collaborator.
type ModelRegistry struct {
	Version       string        `json:"version"`
	LastUpdated   string        `json:"lastUpdated,omitempty"`
	FeatureSchema string        `json:"featureSchema"`
	Scaler        string        `json:"scaler"`
	Encoders      string        `json:"encoders"`
	IncomeModel   string        `json:"incomeModel,omitempty"`
	Scorers       []ScorerEntry `json:"scorers"`
}

// ScorerEntry describes one default-risk classifier.
type ScorerEntry struct {
	Name          string `json:"name"`
	Artifact      string `json:"artifact"`
	Role          string `json:"role"`
	Layout        string `json:"layout"`
	ExpectedWidth int    `json:"expectedWidth"`
	Description   string `json:"description,omitempty"`
}
