// internal/workers/credit/assess-credit-risk/handler.go
package assesscreditrisk

import (
	"context"
	"fmt"
	"time"

	"credx-fairscore/internal/common/aws"
	"credx-fairscore/internal/common/config"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/common/metrics"
	"credx-fairscore/internal/common/observability"
	"credx-fairscore/internal/common/validation"
	"credx-fairscore/internal/models"
	"credx-fairscore/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = config.AssessCreditRiskTask

// Assessor runs the credit pipeline. *scoring.Engine satisfies it.
type Assessor interface {
	AssessReport(ctx context.Context, in *models.ApplicantInput, raw map[string]interface{}) *models.Report
}

// DecisionPublisher emits decision events. *aws.DecisionPublisher satisfies it.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, ev aws.DecisionEvent) (string, error)
}

type Handler struct {
	config     *Config
	engine     Assessor
	publisher  DecisionPublisher
	obs        *observability.Observability
	retrier    errors.Retrier
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

type HandlerOptions struct {
	Config        *Config
	Engine        Assessor
	Publisher     DecisionPublisher
	Observability *observability.Observability
	Retrier       errors.Retrier
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("assess-credit-risk: engine is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for assess-credit-risk: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	publisher := opts.Publisher
	if !cfg.PublishDecisions {
		publisher = nil
	}

	return &Handler{
		config:     cfg,
		engine:     opts.Engine,
		publisher:  publisher,
		obs:        opts.Observability,
		retrier:    opts.Retrier,
		errHandler: errors.NewErrorHandler(log).WithRetrier(opts.Retrier),
		logger:     log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	variables, err := jobVariables(job)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, variables)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "completed")
}

// Execute assesses the applicant held in the job variables. Validation and
// pipeline failures are returned as errors so the process can route them.
func (h *Handler) Execute(ctx context.Context, variables map[string]interface{}) (*Output, error) {
	startTime := time.Now()
	raw := applicantVariables(variables)

	in, err := validation.ParseApplicant(raw)
	if err != nil {
		h.obs.RecordAssessment(ctx, metrics.OutcomeInvalid, time.Since(startTime))
		metrics.CreditAssessments.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	rep := h.engine.AssessReport(ctx, in, raw)
	h.obs.RecordAssessment(ctx, scoring.Outcome(rep), time.Since(startTime))
	if !rep.Success {
		if rep.Cause != nil {
			return nil, rep.Cause
		}
		return nil, errors.NewPipelineFailureError(rep.Error)
	}

	output := &Output{
		CreditAssessment:         rep,
		CreditApproved:           rep.FinalDecision.Approved,
		CreditScore:              rep.FinalDecision.CreditScore,
		RiskCategory:             rep.FinalDecision.RiskCategory,
		IncomeVerificationStatus: rep.IncomeStatus,
	}
	output.DecisionEventID = h.publish(ctx, rep)

	h.logger.Info("credit assessed", map[string]interface{}{
		"applicantId": rep.Name,
		"approved":    output.CreditApproved,
		"creditScore": output.CreditScore,
	})
	return output, nil
}

func jobVariables(job entities.Job) (map[string]interface{}, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	return variables, nil
}

// applicantVariables returns the nested applicant object when present and the
// whole variable set otherwise.
func applicantVariables(variables map[string]interface{}) map[string]interface{} {
	if variables == nil {
		return nil
	}
	if nested, ok := variables["applicant"].(map[string]interface{}); ok {
		return nested
	}
	return variables
}

func (h *Handler) publish(ctx context.Context, rep *models.Report) string {
	if h.publisher == nil {
		return ""
	}
	id, err := h.publisher.PublishDecision(ctx, aws.NewDecisionEvent(rep, time.Now()))
	if err != nil {
		h.logger.Warn("decision event not published", map[string]interface{}{
			"applicantId": rep.Name,
			"errorCode":   string(errors.CodeOf(err)),
			"error":       err.Error(),
		})
		return ""
	}
	return id
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	code := errors.CodeOf(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "failed")
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	err = errors.Send(ctx, h.retrier, "complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}
