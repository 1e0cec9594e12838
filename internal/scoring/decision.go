// internal/scoring/decision.go
package scoring

import (
	"math"

	"credx-fairscore/internal/models"
)

// DefaultThreshold is the calibrated default-probability cut-off. Raising it
// widens approval.
const DefaultThreshold = 0.60

// Credit score range.
const (
	MinScore   = 300
	MaxScore   = 850
	scoreRange = MaxScore - MinScore
)

// RiskBand is a named score band with its display colour.
type RiskBand struct {
	Name     string
	Color    string
	MinScore int
}

// RiskBands are ordered by descending lower bound; the last band catches all.
var RiskBands = []RiskBand{
	{Name: "Excellent", Color: "#27ae60", MinScore: 750},
	{Name: "Good", Color: "#3498db", MinScore: 700},
	{Name: "Fair", Color: "#f39c12", MinScore: 650},
	{Name: "Poor", Color: "#e67e22", MinScore: 600},
	{Name: "Very Poor", Color: "#e74c3c", MinScore: MinScore},
}

// CreditScore maps an approval probability onto [300, 850].
func CreditScore(approvalProbability float64) int {
	score := int(math.Round(MinScore + approvalProbability*scoreRange))
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Band returns the risk band containing score.
func Band(score int) RiskBand {
	for _, b := range RiskBands {
		if score >= b.MinScore {
			return b
		}
	}
	return RiskBands[len(RiskBands)-1]
}

// Decide turns a default probability into a prediction. The caller attaches
// the model name and feature shape.
func Decide(defaultProbability, threshold float64) models.ModelPrediction {
	approval := 1 - defaultProbability
	score := CreditScore(approval)
	band := Band(score)
	return models.ModelPrediction{
		Score:               &score,
		Approved:            defaultProbability < threshold,
		DefaultRisk:         defaultProbability,
		ApprovalProbability: approval,
		RiskCategory:        band.Name,
		RiskColor:           band.Color,
	}
}
