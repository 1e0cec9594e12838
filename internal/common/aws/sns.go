// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
)

// PublishAPI is the part of the SNS client the publisher uses.
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client PublishAPI
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

// NewSNSClientWithAPI wraps an existing client.
func NewSNSClientWithAPI(api PublishAPI) *SNSClient {
	return &SNSClient{client: api}
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// DecisionEvent is the notification emitted for each completed assessment.
// It carries the decision only, never the applicant's inputs.
type DecisionEvent struct {
	ApplicantID   string    `json:"applicant_id"`
	Approved      bool      `json:"approved"`
	CreditScore   int       `json:"credit_score"`
	RiskCategory  string    `json:"risk_category"`
	ApprovedCount int       `json:"approved_count"`
	TotalCount    int       `json:"total_count"`
	Unanimous     bool      `json:"unanimous"`
	AssessedAt    time.Time `json:"assessed_at"`
}

// NewDecisionEvent extracts the event from a successful report.
func NewDecisionEvent(r *models.Report, at time.Time) DecisionEvent {
	ev := DecisionEvent{ApplicantID: r.Name, AssessedAt: at.UTC()}
	if r.FinalDecision != nil {
		ev.Approved = r.FinalDecision.Approved
		ev.CreditScore = r.FinalDecision.CreditScore
		ev.RiskCategory = r.FinalDecision.RiskCategory
	}
	if r.Consensus != nil {
		ev.ApprovedCount = r.Consensus.ApprovedCount
		ev.TotalCount = r.Consensus.TotalCount
		ev.Unanimous = r.Consensus.Unanimous
	}
	return ev
}

// DecisionPublisher sends decision events to an SNS topic.
type DecisionPublisher struct {
	client   *SNSClient
	topicARN string
}

func NewDecisionPublisher(client *SNSClient, topicARN string) *DecisionPublisher {
	return &DecisionPublisher{client: client, topicARN: topicARN}
}

// PublishDecision returns the SNS message id.
func (p *DecisionPublisher) PublishDecision(ctx context.Context, ev DecisionEvent) (string, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", errors.NewDecisionPublishError(err)
	}
	outcome := "rejected"
	if ev.Approved {
		outcome = "approved"
	}
	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String("credit-decision"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"outcome": {DataType: aws.String("String"), StringValue: aws.String(outcome)},
		},
	})
	if err != nil {
		return "", errors.NewDecisionPublishError(err)
	}
	return aws.ToString(out.MessageId), nil
}
