// internal/scoring/pipeline.go
package scoring

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/common/metrics"
	"credx-fairscore/internal/models"
	"credx-fairscore/pkg/registry"
)

// Options tune an Engine.
type Options struct {
	// Threshold is the default-probability cut-off. Zero means DefaultThreshold.
	Threshold float64
	// Parallel runs the scorers concurrently.
	Parallel bool
}

// Engine is the immutable per-process assessment context. It is safe for
// concurrent use.
type Engine struct {
	assembler *Assembler
	income    *IncomeVerifier
	scorers   []*Scorer
	primary   string
	threshold float64
	parallel  bool
	log       logger.Logger
}

// NewEngine builds an engine from a loaded bundle. The primary scorer always
// runs first.
func NewEngine(b *artifacts.Bundle, opts Options, log logger.Logger) (*Engine, error) {
	assembler, err := NewAssembler(b.Schema, b.Scaler, b.Encoders)
	if err != nil {
		return nil, err
	}
	primary, ok := b.Primary()
	if !ok {
		return nil, errors.NewPrimaryModelUnavailableError("bundle has no primary scorer")
	}

	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, errors.NewValidationError(fmt.Sprintf("threshold %v outside (0, 1)", threshold))
	}

	e := &Engine{
		assembler: assembler,
		income:    NewIncomeVerifier(b.IncomeModel, b.Scaler, b.Schema, log),
		primary:   primary.Name,
		threshold: threshold,
		parallel:  opts.Parallel,
		log:       log,
	}
	if w := assembler.Width(primary.Layout); w != primary.ExpectedWidth {
		return nil, errors.NewArtifactMismatchError(primary.Name,
			fmt.Sprintf("layout %s builds %d features, scorer expects %d", primary.Layout, w, primary.ExpectedWidth))
	}
	e.scorers = append(e.scorers, NewScorer(primary))
	for _, s := range b.Scorers {
		if s.Role == registry.RolePrimary {
			continue
		}
		if w := assembler.Width(s.Layout); w != s.ExpectedWidth {
			log.Warn("scorer disabled: width differs from assembled layout", map[string]interface{}{
				"model":         s.Name,
				"layout":        s.Layout,
				"expectedWidth": s.ExpectedWidth,
				"layoutWidth":   w,
			})
			continue
		}
		e.scorers = append(e.scorers, NewScorer(s))
	}
	return e, nil
}

// Threshold returns the configured default-probability cut-off.
func (e *Engine) Threshold() float64 { return e.threshold }

// Primary returns the name of the authoritative scorer.
func (e *Engine) Primary() string { return e.primary }

// Scorers returns the scorer names in run order.
func (e *Engine) Scorers() []string {
	out := make([]string, len(e.scorers))
	for i, s := range e.scorers {
		out[i] = s.Name
	}
	return out
}

// Assess runs the full pipeline for one applicant. Unknown category codes
// fail before any feature is built. A failed primary scorer fails the
// request; other scorer failures are recorded in the report.
func (e *Engine) Assess(ctx context.Context, in *models.ApplicantInput) (*models.Report, error) {
	if in == nil {
		return nil, errors.NewValidationError("applicant is required")
	}
	log := e.log.WithFields(map[string]interface{}{"applicantId": in.ApplicantID})

	cats, err := DecodeApplicant(in)
	if err != nil {
		return nil, err
	}
	log.Debug("categories decoded", nil)

	f := EngineerFeatures(in)
	est := e.income.Estimate(f)
	f.VerifiedIncomeFromIVL = est.Value
	metrics.IncomeVerifications.WithLabelValues(est.Source).Inc()
	log.Debug("features engineered", map[string]interface{}{"incomeSource": est.Source})

	preds, err := e.score(ctx, f, cats)
	if err != nil {
		return nil, err
	}

	consensus := Consensus(preds)
	metrics.ConsensusDecisions.WithLabelValues(metrics.Agreement(consensus.Unanimous)).Inc()

	auth, err := Authoritative(preds, e.primary)
	if err != nil {
		return nil, err
	}
	factors := AnalyzeFactors(f, auth.Approved)
	log.Debug("decision made", map[string]interface{}{
		"approved":      auth.Approved,
		"creditScore":   auth.CreditScore(),
		"approvedCount": consensus.ApprovedCount,
		"totalCount":    consensus.TotalCount,
	})

	return e.report(in, cats, auth, preds, consensus, factors, est), nil
}

// AssessReport never fails: any error, including a panic, becomes the
// failure report echoing raw.
func (e *Engine) AssessReport(ctx context.Context, in *models.ApplicantInput, raw map[string]interface{}) (report *models.Report) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.NewPipelineFailureError(fmt.Sprintf("%v", r))
			e.log.Error("assessment panicked", map[string]interface{}{"applicantId": applicantID(in), "error": err})
			metrics.CreditAssessments.WithLabelValues(metrics.OutcomeFailed).Inc()
			report = models.NewFailedReport(err, raw)
		}
	}()

	rep, err := e.Assess(ctx, in)
	if err != nil {
		e.log.Error("assessment failed", map[string]interface{}{
			"applicantId": applicantID(in),
			"errorCode":   string(errors.CodeOf(err)),
			"error":       err,
		})
		rep = models.NewFailedReport(err, raw)
	}
	metrics.CreditAssessments.WithLabelValues(Outcome(rep)).Inc()
	return rep
}

func applicantID(in *models.ApplicantInput) string {
	if in == nil {
		return ""
	}
	return in.ApplicantID
}

// Outcome classifies a report for metrics: approved, rejected, invalid
// (validation failure) or failed.
func Outcome(rep *models.Report) string {
	switch {
	case rep == nil:
		return metrics.OutcomeFailed
	case rep.Success && rep.FinalDecision != nil && rep.FinalDecision.Approved:
		return metrics.OutcomeApproved
	case rep.Success:
		return metrics.OutcomeRejected
	case rep.Cause != nil && errors.GetErrorCategory(errors.CodeOf(rep.Cause)) == "VALIDATION":
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeFailed
	}
}

func (e *Engine) score(ctx context.Context, f *models.EngineeredFeatures, cats models.DecodedCategories) ([]models.ModelPrediction, error) {
	preds := make([]models.ModelPrediction, len(e.scorers))
	if !e.parallel {
		for i, s := range e.scorers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			preds[i] = e.predict(s, f, cats)
		}
		return preds, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range e.scorers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			preds[i] = e.predict(s, f, cats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return preds, nil
}

func (e *Engine) predict(s *Scorer, f *models.EngineeredFeatures, cats models.DecodedCategories) models.ModelPrediction {
	vec, err := e.assembler.Assemble(f, cats.Region, cats.Employment, s.Layout)
	if err != nil {
		return e.failed(s, s.ExpectedWidth, err)
	}
	res := s.Predict(vec)
	if !res.OK() {
		return e.failed(s, res.Width, res.Err)
	}

	pred := Decide(res.DefaultProbability, e.threshold)
	pred.Model = s.Name
	pred.FeatureShape = [2]int{1, res.Width}
	metrics.ModelPredictions.WithLabelValues(s.Name, metrics.PredictionSucceeded).Inc()
	metrics.ModelDefaultRisk.WithLabelValues(s.Name).Observe(res.DefaultProbability)
	return pred
}

func (e *Engine) failed(s *Scorer, width int, err error) models.ModelPrediction {
	msg := err.Error()
	e.log.Error("scorer failed", map[string]interface{}{
		"model":     s.Name,
		"errorCode": string(errors.CodeOf(err)),
		"error":     msg,
	})
	metrics.ModelPredictions.WithLabelValues(s.Name, metrics.PredictionFailed).Inc()
	return models.ModelPrediction{Model: s.Name, FeatureShape: [2]int{1, width}, Error: &msg}
}

func (e *Engine) report(
	in *models.ApplicantInput,
	cats models.DecodedCategories,
	auth models.ModelPrediction,
	preds []models.ModelPrediction,
	consensus models.ConsensusReport,
	factors FactorAnalysis,
	est IncomeEstimate,
) *models.Report {
	succeeded := make([]models.ModelPrediction, 0, len(preds))
	all := make(map[string]models.ModelPrediction, len(preds))
	for _, p := range preds {
		all[p.Model] = p
		if p.Succeeded() {
			succeeded = append(succeeded, p)
		}
	}

	return &models.Report{
		Success: true,
		ApplicantProfile: &models.ApplicantProfile{
			Age:           in.Age,
			Gender:        cats.Gender,
			Region:        cats.Region,
			Employment:    cats.Employment,
			MonthlyIncome: in.MonthlyIncome,
		},
		FinalDecision: &models.FinalDecision{
			Approved:            auth.Approved,
			CreditScore:         auth.CreditScore(),
			RiskCategory:        auth.RiskCategory,
			DefaultRisk:         auth.DefaultRisk,
			ApprovalProbability: auth.ApprovalProbability,
			Threshold:           e.threshold,
		},
		ModelPredictions: succeeded,
		Consensus:        &consensus,
		PositiveFactors:  factors.Positive,
		NegativeFactors:  factors.Negative,
		Recommendations:  factors.Recommendations,
		AllPredictions:   all,
		Colour:           auth.RiskColor,
		Name:             in.ApplicantID,
		IncomeStatus:     est.Status,
	}
}
