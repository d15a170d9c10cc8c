package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
	"github.com/linearclockworks/shopify-serial--webhook/internal/orders"
	"github.com/linearclockworks/shopify-serial--webhook/internal/security"
)

const webhookHealthText = "Webhook handler is running"

func (rt *Router) webhookHealth(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return textResp(http.StatusOK, webhookHealthText)
}

// webhook handles an orders/create delivery. Processed orders answer 200
// even when some units failed: a retry would issue fresh serials for units
// that already have one. Failures are reported in the body and by alert.
func (rt *Router) webhook(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log := logging.FromContext(ctx)

	raw, err := body(req)
	if err != nil {
		return errResp(http.StatusBadRequest, "bad_request", "invalid body encoding")
	}

	if rt.opts.WebhookSecret != "" {
		if err := security.VerifyWebhook(rt.opts.WebhookSecret, raw, header(req, "X-Shopify-Hmac-Sha256")); err != nil {
			log.Warn("webhook rejected", zap.Error(err))
			return errResp(http.StatusUnauthorized, "unauthorized", "invalid webhook signature")
		}
	}

	topic := header(req, "X-Shopify-Topic")
	shop := header(req, "X-Shopify-Shop-Domain")
	webhookID := header(req, "X-Shopify-Webhook-Id")
	log = log.With(zap.String("topic", topic), zap.String("webhook_id", webhookID))

	// An empty topic is a manual replay; anything else must create an order.
	if topic != "" && !isOrderTopic(topic) {
		log.Info("webhook topic ignored")
		return jsonResp(http.StatusOK, map[string]any{"status": "ignored"})
	}

	o, err := orders.ParseWebhookOrder(raw)
	if err != nil {
		log.Warn("webhook payload rejected", zap.Error(err))
		msg := "invalid order payload"
		if errors.Is(err, orders.ErrEmptyPayload) {
			msg = "empty order payload"
		}
		return errResp(http.StatusBadRequest, "bad_request", msg)
	}

	if claimed(logging.WithLogger(ctx, log), rt.opts, webhookID, shop, topic) {
		log.Info("duplicate webhook delivery ignored")
		return jsonResp(http.StatusOK, map[string]any{"status": "duplicate"})
	}

	res := rt.opts.Pipeline.ProcessOrder(logging.WithLogger(ctx, log), o)
	return jsonResp(http.StatusOK, map[string]any{
		"status":  res.Status(),
		"order":   res.OrderNumber,
		"serials": res.Serials,
		"units":   res.Units,
		"skipped": res.Skipped,
	})
}
