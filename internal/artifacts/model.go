// internal/artifacts/model.go
package artifacts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"credx-fairscore/internal/common/errors"
)

// Model artifact kinds.
const (
	ModelTreeEnsemble = "tree_ensemble"
	ModelLogistic     = "logistic"
	ModelLinear       = "linear"
)

// Tree-ensemble objectives.
const (
	ObjectiveBinaryLogistic = "binary:logistic"
	ObjectiveSquaredError   = "reg:squarederror"
)

// Classifier is a fitted binary classifier. PredictProba returns the
// distribution [p(no-default), p(default)] for one row.
type Classifier interface {
	NFeatures() int
	PredictProba(row []float64) ([]float64, error)
}

// Regressor is a fitted single-output regressor.
type Regressor interface {
	NFeatures() int
	Predict(row []float64) (float64, error)
}

type envelope struct {
	Type      string `json:"type"`
	NFeatures int    `json:"n_features"`
}

// ParseClassifier decodes a classifier artifact.
func ParseClassifier(name string, data []byte) (Classifier, error) {
	env, err := decodeEnvelope(name, data)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case ModelTreeEnsemble:
		m, err := parseTreeEnsemble(name, data)
		if err != nil {
			return nil, err
		}
		if m.Objective != ObjectiveBinaryLogistic {
			return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("objective %q is not a classifier", m.Objective))
		}
		return m, nil
	case ModelLogistic:
		return parseLinear(name, data, true)
	default:
		return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("unsupported classifier type %q", env.Type))
	}
}

// ParseRegressor decodes a regressor artifact.
func ParseRegressor(name string, data []byte) (Regressor, error) {
	env, err := decodeEnvelope(name, data)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case ModelTreeEnsemble:
		m, err := parseTreeEnsemble(name, data)
		if err != nil {
			return nil, err
		}
		if m.Objective != ObjectiveSquaredError {
			return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("objective %q is not a regressor", m.Objective))
		}
		return m, nil
	case ModelLinear:
		return parseLinear(name, data, false)
	default:
		return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("unsupported regressor type %q", env.Type))
	}
}

func decodeEnvelope(name string, data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("decode: %v", err))
	}
	if env.NFeatures <= 0 {
		return nil, errors.NewArtifactMismatchError(name, "n_features must be positive")
	}
	return &env, nil
}

// ==========================
// Linear / logistic models
// ==========================

// LinearModel is w·x + b, passed through the logistic function when it is a classifier.
type LinearModel struct {
	Width        int       `json:"n_features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`

	logistic bool
}

func parseLinear(name string, data []byte, logistic bool) (*LinearModel, error) {
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("decode: %v", err))
	}
	if len(m.Coefficients) != m.Width {
		return nil, errors.NewArtifactMismatchError(name,
			fmt.Sprintf("%d coefficients for %d features", len(m.Coefficients), m.Width))
	}
	m.logistic = logistic
	return &m, nil
}

func (m *LinearModel) NFeatures() int { return m.Width }

func (m *LinearModel) margin(row []float64) (float64, error) {
	if len(row) != m.Width {
		return 0, errors.NewFeatureShapeError(len(row), m.Width)
	}
	z := m.Intercept
	for i, w := range m.Coefficients {
		z += w * row[i]
	}
	return z, nil
}

func (m *LinearModel) Predict(row []float64) (float64, error) {
	return m.margin(row)
}

func (m *LinearModel) PredictProba(row []float64) ([]float64, error) {
	z, err := m.margin(row)
	if err != nil {
		return nil, err
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

// ==========================
// Tree ensembles
// ==========================

// TreeNode is one node of a tree in the XGBoost JSON dump format. Leaves carry
// Leaf; split nodes carry Split, SplitCondition and the Yes/No/Missing targets.
type TreeNode struct {
	NodeID         int         `json:"nodeid"`
	Split          string      `json:"split,omitempty"`
	SplitCondition float64     `json:"split_condition,omitempty"`
	Yes            int         `json:"yes,omitempty"`
	No             int         `json:"no,omitempty"`
	Missing        int         `json:"missing,omitempty"`
	Leaf           *float64    `json:"leaf,omitempty"`
	Children       []*TreeNode `json:"children,omitempty"`

	feature int
	byID    map[int]*TreeNode
}

// TreeEnsemble is a boosted (aggregation "sum") or bagged (aggregation "mean")
// set of regression trees.
type TreeEnsemble struct {
	Width        int         `json:"n_features"`
	Objective    string      `json:"objective"`
	BaseScore    float64     `json:"base_score"`
	Aggregation  string      `json:"aggregation"`
	FeatureNames []string    `json:"feature_names,omitempty"`
	Trees        []*TreeNode `json:"trees"`
}

func parseTreeEnsemble(name string, data []byte) (*TreeEnsemble, error) {
	var m TreeEnsemble
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("decode: %v", err))
	}
	if len(m.Trees) == 0 {
		return nil, errors.NewArtifactMismatchError(name, "ensemble has no trees")
	}
	if m.Aggregation == "" {
		m.Aggregation = "sum"
	}
	if m.Aggregation != "sum" && m.Aggregation != "mean" {
		return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("unknown aggregation %q", m.Aggregation))
	}
	if m.Objective == ObjectiveBinaryLogistic && m.Aggregation == "sum" && m.BaseScore == 0 {
		m.BaseScore = 0.5
	}
	if m.Objective == ObjectiveBinaryLogistic && m.Aggregation == "sum" && (m.BaseScore <= 0 || m.BaseScore >= 1) {
		return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("base_score %v outside (0,1)", m.BaseScore))
	}
	names := make(map[string]int, len(m.FeatureNames))
	for i, n := range m.FeatureNames {
		names[n] = i
	}
	for i, root := range m.Trees {
		if err := root.resolve(m.Width, names); err != nil {
			return nil, errors.NewArtifactMismatchError(name, fmt.Sprintf("tree %d: %v", i, err))
		}
	}
	return &m, nil
}

func (n *TreeNode) resolve(width int, names map[string]int) error {
	if n.Leaf != nil {
		return nil
	}
	if len(n.Children) == 0 {
		return fmt.Errorf("node %d has neither leaf nor children", n.NodeID)
	}
	idx, ok := names[n.Split]
	if !ok {
		if !strings.HasPrefix(n.Split, "f") {
			return fmt.Errorf("node %d splits on unknown feature %q", n.NodeID, n.Split)
		}
		v, err := strconv.Atoi(strings.TrimPrefix(n.Split, "f"))
		if err != nil {
			return fmt.Errorf("node %d splits on unknown feature %q", n.NodeID, n.Split)
		}
		idx = v
	}
	if idx < 0 || idx >= width {
		return fmt.Errorf("node %d splits on feature %d outside width %d", n.NodeID, idx, width)
	}
	n.feature = idx
	n.byID = make(map[int]*TreeNode, len(n.Children))
	for _, c := range n.Children {
		n.byID[c.NodeID] = c
	}
	for _, target := range []int{n.Yes, n.No} {
		if _, ok := n.byID[target]; !ok {
			return fmt.Errorf("node %d points at missing child %d", n.NodeID, target)
		}
	}
	if _, ok := n.byID[n.Missing]; !ok {
		n.Missing = n.Yes
	}
	for _, c := range n.Children {
		if err := c.resolve(width, names); err != nil {
			return err
		}
	}
	return nil
}

func (n *TreeNode) eval(row []float64) float64 {
	node := n
	for node.Leaf == nil {
		v := row[node.feature]
		switch {
		case math.IsNaN(v):
			node = node.byID[node.Missing]
		case v < node.SplitCondition:
			node = node.byID[node.Yes]
		default:
			node = node.byID[node.No]
		}
	}
	return *node.Leaf
}

func (m *TreeEnsemble) NFeatures() int { return m.Width }

func (m *TreeEnsemble) raw(row []float64) (float64, error) {
	if len(row) != m.Width {
		return 0, errors.NewFeatureShapeError(len(row), m.Width)
	}
	var sum float64
	for _, t := range m.Trees {
		sum += t.eval(row)
	}
	if m.Aggregation == "mean" {
		return sum / float64(len(m.Trees)), nil
	}
	return sum, nil
}

// Predict returns the regression output for one row.
func (m *TreeEnsemble) Predict(row []float64) (float64, error) {
	v, err := m.raw(row)
	if err != nil {
		return 0, err
	}
	if m.Aggregation == "mean" {
		return v, nil
	}
	return m.BaseScore + v, nil
}

// PredictProba returns [p(no-default), p(default)] for one row.
func (m *TreeEnsemble) PredictProba(row []float64) ([]float64, error) {
	v, err := m.raw(row)
	if err != nil {
		return nil, err
	}
	var p float64
	if m.Aggregation == "mean" {
		p = math.Min(1, math.Max(0, v))
	} else {
		p = sigmoid(logit(m.BaseScore) + v)
	}
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
