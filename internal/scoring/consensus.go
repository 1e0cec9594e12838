// internal/scoring/consensus.go
package scoring

import (
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
)

// Consensus counts agreement among the predictions that succeeded.
func Consensus(preds []models.ModelPrediction) models.ConsensusReport {
	var r models.ConsensusReport
	for _, p := range preds {
		if !p.Succeeded() {
			continue
		}
		r.TotalCount++
		if p.Approved {
			r.ApprovedCount++
		}
	}
	r.Unanimous = r.TotalCount > 0 && (r.ApprovedCount == 0 || r.ApprovedCount == r.TotalCount)
	return r
}

// Authoritative returns the primary scorer's prediction. Other scorers never
// stand in for it.
func Authoritative(preds []models.ModelPrediction, primary string) (models.ModelPrediction, error) {
	for _, p := range preds {
		if p.Model != primary {
			continue
		}
		if !p.Succeeded() {
			reason := "prediction failed"
			if p.Error != nil {
				reason = *p.Error
			}
			return models.ModelPrediction{}, errors.NewPrimaryModelUnavailableError(primary + ": " + reason)
		}
		return p, nil
	}
	return models.ModelPrediction{}, errors.NewPrimaryModelUnavailableError(primary + " did not run")
}
