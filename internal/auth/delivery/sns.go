package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// publisher is satisfied by *sns.Client.
type publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSConfig selects the region and, optionally, static credentials. Without
// static keys the default AWS credential chain is used.
type SNSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SenderID        string
}

// SNSChannel sends SMS through AWS SNS direct-to-phone publishing.
type SNSChannel struct {
	client   publisher
	senderID string
}

func NewSNSChannel(ctx context.Context, cfg SNSConfig) (*SNSChannel, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: sns requires a region", ErrNotConfigured)
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SNSChannel{client: sns.NewFromConfig(awsCfg), senderID: cfg.SenderID}, nil
}

func (c *SNSChannel) Send(ctx context.Context, phone, message string) (Receipt, error) {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if c.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(c.senderID),
		}
	}

	out, err := c.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("sns: publish: %w", err)
	}

	return Receipt{Provider: "sns", MessageID: aws.ToString(out.MessageId)}, nil
}
