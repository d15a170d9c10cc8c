package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
	"github.com/linearclockworks/shopify-serial--webhook/internal/pipeline"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

// Pipeline is the serial workflow behind every route.
type Pipeline interface {
	ProcessOrder(ctx context.Context, o *shopify.Order) *pipeline.Result
	CreateAvailable(ctx context.Context, familyName, style string) (*pipeline.CreateResult, error)
	AssignTestSerial(ctx context.Context, familyName string, orderID int64) (string, error)
	PeekSerials(ctx context.Context) []pipeline.Peek
	ResolveOrder(ctx context.Context, input string) (*shopify.Order, error)
}

type Options struct {
	Pipeline Pipeline
	// WebhookSecret verifies X-Shopify-Hmac-Sha256; empty disables the check.
	WebhookSecret string
	// Dedupe and DedupeTable are optional; both are needed to drop
	// redelivered webhooks.
	Dedupe      shopify.DedupeClient
	DedupeTable string
	// CreateFamily issues serials for /create-product; TestFamily for /test.
	CreateFamily string
	TestFamily   string
	// Presence reports which settings are configured, for /debug.
	Presence func() map[string]any
	Log      *zap.Logger
}

type Router struct {
	opts Options
	log  *zap.Logger
}

func NewRouter(opts Options) *Router {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.CreateFamily == "" {
		opts.CreateFamily = "clocks"
	}
	if opts.TestFamily == "" {
		opts.TestFamily = "clocks"
	}
	return &Router{opts: opts, log: opts.Log}
}

type route struct {
	get  func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)
	post func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)
}

func (rt *Router) routes(path string) (route, bool) {
	switch path {
	case "/webhook":
		return route{get: rt.webhookHealth, post: rt.webhook}, true
	case "/process-order":
		return route{get: rt.processOrderForm, post: rt.processOrder}, true
	case "/create-product", "/create_product":
		return route{get: rt.createProduct}, true
	case "/test":
		return route{get: rt.testSerial}, true
	case "/next-serial":
		return route{get: rt.nextSerial}, true
	case "/debug":
		return route{get: rt.debug}, true
	}
	return route{}, false
}

// Handle is the Lambda entry point for API Gateway HTTP API events.
func (rt *Router) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (resp events.APIGatewayV2HTTPResponse, err error) {
	path := normalizePath(req.RawPath)
	method := strings.ToUpper(req.RequestContext.HTTP.Method)

	log := rt.log.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("method", method),
		zap.String("path", path),
	)
	if id := req.RequestContext.RequestID; id != "" {
		log = log.With(zap.String("gateway_request_id", id))
	}
	ctx = logging.WithLogger(ctx, log)

	defer func() {
		if p := recover(); p != nil {
			log.Error("handler panic", zap.Any("panic", p), zap.Stack("stack"))
			resp, err = errResp(http.StatusInternalServerError, "internal", "internal error")
		}
	}()

	r, ok := rt.routes(path)
	if !ok {
		return errResp(http.StatusNotFound, "not_found", "not found")
	}

	var h func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)
	switch method {
	case http.MethodGet:
		h = r.get
	case http.MethodPost:
		h = r.post
	}
	if h == nil {
		return errResp(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}

	resp, err = h(ctx, req)
	log.Info("request handled", zap.Int("status", resp.StatusCode))
	return resp, err
}

// normalizePath drops the optional /api prefix and trailing slashes.
func normalizePath(p string) string {
	p = "/" + strings.Trim(p, "/")
	if p == "/api" {
		return "/"
	}
	if strings.HasPrefix(p, "/api/") {
		p = strings.TrimPrefix(p, "/api")
	}
	return p
}

// header reads a request header regardless of case.
func header(req events.APIGatewayV2HTTPRequest, name string) string {
	if v, ok := req.Headers[name]; ok {
		return v
	}
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// body returns the raw request body, undoing the gateway's base64 encoding.
func body(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("decode base64 body: %w", err)
	}
	return b, nil
}

func jsonResp(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
		Body: string(b),
	}, nil
}

func errResp(status int, code, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResp(status, map[string]any{
		"error":   code,
		"message": msg,
	})
}

func textResp(status int, text string) (events.APIGatewayV2HTTPResponse, error) {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "text/plain; charset=utf-8"},
		Body:       text,
	}, nil
}

func htmlResp(status int, html string) (events.APIGatewayV2HTTPResponse, error) {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "text/html; charset=utf-8"},
		Body:       html,
	}, nil
}
