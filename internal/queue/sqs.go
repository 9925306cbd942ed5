package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// ErrQueueURLRequired is returned when the publisher has no queue URL.
var ErrQueueURLRequired = errors.New("queue: queue URL is required")

// Publisher puts analysis requests on a queue.
type Publisher interface {
	// Publish sends one request and returns the broker's message ID.
	// attrs are attached as string message attributes.
	Publish(ctx context.Context, req AnalysisRequest, attrs map[string]string) (messageID string, err error)
}

// SQSAPI is the subset of the SQS client used by SQSPublisher.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Compile-time check that SQSPublisher implements Publisher.
var _ Publisher = (*SQSPublisher)(nil)

// SQSPublisher implements Publisher with Amazon SQS.
type SQSPublisher struct {
	client   SQSAPI
	queueURL string
}

// NewSQSPublisher creates a publisher sending to queueURL.
func NewSQSPublisher(client SQSAPI, queueURL string) (*SQSPublisher, error) {
	if queueURL == "" {
		return nil, ErrQueueURLRequired
	}
	return &SQSPublisher{client: client, queueURL: queueURL}, nil
}

// Publish sends req as a JSON message body.
func (p *SQSPublisher) Publish(ctx context.Context, req AnalysisRequest, attrs map[string]string) (string, error) {
	body, err := Encode(req)
	if err != nil {
		return "", err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(body),
	}
	if len(attrs) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		for k, v := range attrs {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	out, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("send message for %s: %w", req, err)
	}
	return aws.ToString(out.MessageId), nil
}
