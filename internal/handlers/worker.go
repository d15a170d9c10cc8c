package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
	"github.com/linearclockworks/shopify-serial--webhook/internal/orders"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

// EBEvent is a platform webhook relayed through EventBridge to SQS.
type EBEvent struct {
	DetailType string `json:"detail-type"`
	Source     string `json:"source"`
	Time       string `json:"time"`
	Detail     struct {
		Metadata map[string]string `json:"metadata"`
		Payload  json.RawMessage   `json:"payload"`
	} `json:"detail"`
}

// Worker consumes orders/create deliveries from SQS. EventBridge delivery
// is authenticated by AWS, so there is no HMAC check.
type Worker struct {
	opts Options
	log  *zap.Logger
}

func NewWorker(opts Options) *Worker {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Worker{opts: opts, log: opts.Log}
}

// Handle reports undecodable messages as batch item failures so they reach
// the dead-letter queue. A processed order is never retried, whatever its
// outcome.
func (w *Worker) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, rec := range ev.Records {
		log := w.log.With(zap.String("message_id", rec.MessageId))
		if err := w.processOne(logging.WithLogger(ctx, log), rec.Body); err != nil {
			log.Error("order message failed", zap.Error(err))
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func (w *Worker) processOne(ctx context.Context, body string) error {
	log := logging.FromContext(ctx)

	var e EBEvent
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		return fmt.Errorf("unmarshal eb event: %w", err)
	}
	meta := e.Detail.Metadata
	topic := meta["X-Shopify-Topic"]
	webhookID := meta["X-Shopify-Webhook-Id"]
	log = log.With(zap.String("topic", topic), zap.String("webhook_id", webhookID))

	if !isOrderTopic(topic) {
		log.Info("event ignored")
		return nil
	}

	o, err := orders.ParseWebhookOrder(e.Detail.Payload)
	if err != nil {
		return err
	}

	if claimed(ctx, w.opts, webhookID, meta["X-Shopify-Shop-Domain"], topic) {
		log.Info("duplicate webhook delivery ignored")
		return nil
	}

	res := w.opts.Pipeline.ProcessOrder(logging.WithLogger(ctx, log), o)
	log.Info("order message processed", zap.String("status", res.Status()), zap.Strings("serials", res.Serials))
	return nil
}

// orderTopics lists the topics that issue serials. Other order topics
// (updated, edited) would issue a second serial for the same unit.
var orderTopics = map[string]bool{"orders/create": true}

func isOrderTopic(topic string) bool {
	return orderTopics[topic]
}

// claimed reports whether the delivery was already seen. Dedupe errors are
// logged and treated as a first delivery.
func claimed(ctx context.Context, opts Options, webhookID, shop, topic string) bool {
	if opts.Dedupe == nil || opts.DedupeTable == "" {
		return false
	}
	dup, err := shopify.ClaimWebhook(ctx, opts.Dedupe, opts.DedupeTable, webhookID, shop, topic)
	if err != nil {
		logging.FromContext(ctx).Warn("webhook dedupe unavailable", zap.Error(err))
		return false
	}
	return dup
}
