package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
)

// testSerial issues one serial and notes it on ?order_id=, without touching
// the tracking sheet.
func (rt *Router) testSerial(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	raw := strings.TrimSpace(req.QueryStringParameters["order_id"])
	if raw == "" {
		return errResp(http.StatusBadRequest, "bad_request", "missing order_id parameter")
	}
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || orderID <= 0 {
		return errResp(http.StatusBadRequest, "bad_request", "order_id must be a positive integer")
	}

	serial, err := rt.opts.Pipeline.AssignTestSerial(ctx, rt.opts.TestFamily, orderID)
	if err != nil {
		logging.FromContext(ctx).Error("test serial failed", zap.Int64("order_id", orderID), zap.String("serial", serial), zap.Error(err))
		failure := map[string]any{"error": "failed", "message": "serial not assigned"}
		if serial != "" {
			failure["serial"] = serial
		}
		return jsonResp(http.StatusInternalServerError, failure)
	}
	return jsonResp(http.StatusOK, map[string]any{"status": "success", "serial": serial})
}

func (rt *Router) nextSerial(ctx context.Context, _ events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(http.StatusOK, map[string]any{"families": rt.opts.Pipeline.PeekSerials(ctx)})
}

func (rt *Router) debug(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	report := map[string]any{}
	if rt.opts.Presence != nil {
		report = rt.opts.Presence()
	}
	report["webhook_verification"] = rt.opts.WebhookSecret != ""
	report["webhook_dedupe"] = rt.opts.Dedupe != nil && rt.opts.DedupeTable != ""
	return jsonResp(http.StatusOK, report)
}
