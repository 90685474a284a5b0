package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type Sender struct {
	client *sns.Client
}

func NewSNSSender(ctx context.Context, region string) (*Sender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config failed: %w", err)
	}

	return &Sender{client: sns.NewFromConfig(cfg)}, nil
}

func (s *Sender) Name() string {
	return "sns"
}

func (s *Sender) Send(ctx context.Context, to string, text string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(text),
	})
	if err != nil {
		return fmt.Errorf("sns publish failed: %w", err)
	}

	return nil
}
