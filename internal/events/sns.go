package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	awsclient "mergington-activities/internal/common/aws"
	"mergington-activities/internal/models"
)

const SNSSinkName = "sns-topic"

// SNSPublisher publishes each event as JSON to an SNS topic. The event type
// travels as a message attribute so subscribers can filter on it.
type SNSPublisher struct {
	client   awsclient.SNSAPI
	topicARN string
}

func NewSNSPublisher(client awsclient.SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) Name() string { return SNSSinkName }

func (p *SNSPublisher) Publish(ctx context.Context, event models.RosterEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Type)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish failed: %w", err)
	}
	return nil
}
