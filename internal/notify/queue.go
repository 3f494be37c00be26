package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/wolfman30/baja-build-leads/internal/leads"
)

const leadCreatedMessageType = "lead.created"

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// QueueMessage is the body published for each new lead.
type QueueMessage struct {
	Type string      `json:"type"`
	Lead *leads.Lead `json:"lead"`
}

// SQSPublisher publishes lead.created messages for downstream consumers.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
}

// NewSQSPublisher returns nil when queueURL is empty.
func NewSQSPublisher(client *sqs.Client, queueURL string) *SQSPublisher {
	if queueURL == "" {
		return nil
	}
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	return newSQSPublisherWithAPI(client, queueURL)
}

func newSQSPublisherWithAPI(client sqsAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Name() string { return "sqs" }

func (p *SQSPublisher) LeadCreated(ctx context.Context, lead *leads.Lead) error {
	body, err := json.Marshal(QueueMessage{Type: leadCreatedMessageType, Lead: lead})
	if err != nil {
		return fmt.Errorf("notify: marshal queue message: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type":   {DataType: aws.String("String"), StringValue: aws.String(leadCreatedMessageType)},
			"source": {DataType: aws.String("String"), StringValue: aws.String(lead.Source)},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}

var (
	_ leads.Notifier = (*SQSPublisher)(nil)
	_ leads.Notifier = (*WebhookNotifier)(nil)
	_ leads.Notifier = (*EmailAlertNotifier)(nil)
)
