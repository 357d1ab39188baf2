package notify

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/pkg/signature"
)

// Module exposes the configured notification sinks to fx graph.
var Module = fx.Provide(newNotifier)

type notifierParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Signer *signature.Verifier
	Logger *slog.Logger
}

var newSQSClient = func(ctx context.Context, region string) (SQSAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

func newNotifier(p notifierParams) (Notifier, error) {
	var sinks Multi

	if p.Config.NotifyWebhookURL != "" {
		hook, err := NewHTTPNotifier(p.Config.NotifyWebhookURL, p.Signer, p.Logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, hook)
	}

	if p.Config.NotifySQSQueueURL != "" {
		client, err := newSQSClient(p.Ctx, p.Config.AWSRegion)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, NewSQSNotifier(client, p.Config.NotifySQSQueueURL, p.Logger))
	}

	switch len(sinks) {
	case 0:
		return Nop{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
