package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pkg/signature"
)

// Notifier publishes settled payment events.
type Notifier interface {
	Notify(ctx context.Context, event model.PaymentEvent) error
}

// Nop drops every event.
type Nop struct{}

// Notify discards event and always succeeds.
func (Nop) Notify(context.Context, model.PaymentEvent) error { return nil }

// Multi fans an event out to every sink and joins their errors.
type Multi []Notifier

// Notify delivers event to every sink, even after one fails.
func (m Multi) Notify(ctx context.Context, event model.PaymentEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HTTPNotifier posts events as signed JSON to a merchant callback.
type HTTPNotifier struct {
	target     *url.URL
	signer     *signature.Verifier
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPNotifier creates webhook sink; signer may be disabled.
func NewHTTPNotifier(target string, signer *signature.Verifier, logger *slog.Logger) (*HTTPNotifier, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse notify url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("notify url must be absolute")
	}
	return &HTTPNotifier{
		target: parsed,
		signer: signer,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

// Notify posts event once; any non-2xx response is an error and retries are left to the caller.
func (n *HTTPNotifier) Notify(ctx context.Context, event model.PaymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.target.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Id", event.EventID)
	if n.signer != nil && n.signer.Enabled() {
		req.Header.Set(signature.HeaderName, n.signer.Sign(body))
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify endpoint returned %s", resp.Status)
	}
	return nil
}

// SQSAPI is the subset of the SQS client used for publishing.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier publishes events to a queue.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
	logger   *slog.Logger
}

// NewSQSNotifier returns a queue sink bound to queueURL.
func NewSQSNotifier(client SQSAPI, queueURL string, logger *slog.Logger) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL, logger: logger}
}

// Notify sends event as one message tagged with its event id, order id and status.
func (n *SQSNotifier) Notify(ctx context.Context, event model.PaymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"eventId": {DataType: aws.String("String"), StringValue: aws.String(event.EventID)},
			"orderId": {DataType: aws.String("Number"), StringValue: aws.String(strconv.FormatInt(event.OrderID, 10))},
			"status":  {DataType: aws.String("String"), StringValue: aws.String(string(event.Status))},
		},
	}

	if _, err := n.client.SendMessage(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			n.logger.Error("sqs rejected payment event",
				slog.String("code", apiErr.ErrorCode()),
				slog.String("message", apiErr.ErrorMessage()),
				slog.Int64("order_id", event.OrderID),
			)
		}
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
