package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-feedback-service/internal/config"
	"github.com/go-feedback-service/internal/domain"
	"github.com/go-feedback-service/internal/infrastructure/awscfg"
	"github.com/goccy/go-json"
)

type topicAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	ConfirmSubscription(ctx context.Context, in *sns.ConfirmSubscriptionInput, optFns ...func(*sns.Options)) (*sns.ConfirmSubscriptionOutput, error)
}

// Publisher fans submission events out through an SNS topic.
type Publisher struct {
	client   topicAPI
	topicARN string
}

func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	clientOpts := []func(*sns.Options){}
	if endpoint := awscfg.Endpoint(cfg); endpoint != nil {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = endpoint
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}

func NewPublisher(client *sns.Client, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN}
}

// Publish sends evt as a JSON message and returns the SNS message id.
func (p *Publisher) Publish(ctx context.Context, evt domain.SubmissionEvent) (string, error) {
	if p.topicARN == "" {
		return "", fmt.Errorf("sns topic not configured")
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"action": {DataType: aws.String("String"), StringValue: aws.String(evt.Action)},
		},
	})
	if err != nil {
		return "", domain.Transient("sns publish", err)
	}
	return aws.ToString(out.MessageId), nil
}

// ConfirmSubscription completes the handshake SNS starts when an HTTP endpoint subscribes.
func (p *Publisher) ConfirmSubscription(ctx context.Context, topicARN, token string) error {
	_, err := p.client.ConfirmSubscription(ctx, &sns.ConfirmSubscriptionInput{
		TopicArn: aws.String(topicARN),
		Token:    aws.String(token),
	})
	if err != nil {
		return domain.Transient("sns confirm subscription", err)
	}
	return nil
}
