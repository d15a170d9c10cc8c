package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/catalog"
	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
	"github.com/linearclockworks/shopify-serial--webhook/internal/pipeline"
)

const draftMessage = "Product created as DRAFT. Customize photos/description, then set to Active."

// createProduct makes an "available" clone of the master for ?style=.
// ?family= picks another serial family than the default.
func (rt *Router) createProduct(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log := logging.FromContext(ctx)

	style := strings.TrimSpace(req.QueryStringParameters["style"])
	if style == "" {
		return errResp(http.StatusBadRequest, "bad_request", "missing style parameter, e.g. /api/create-product?style=Claret")
	}
	family := strings.TrimSpace(req.QueryStringParameters["family"])
	if family == "" {
		family = rt.opts.CreateFamily
	}
	log = log.With(zap.String("style", style), zap.String("family", family))

	res, err := rt.opts.Pipeline.CreateAvailable(ctx, family, style)
	switch {
	case errors.Is(err, catalog.ErrMasterNotFound):
		return errResp(http.StatusNotFound, "not_found", "master product not found for style: "+style)
	case errors.Is(err, pipeline.ErrUnknownFamily):
		return errResp(http.StatusBadRequest, "bad_request", "unknown family: "+family)
	case err != nil:
		log.Error("create product failed", zap.Error(err))
		failure := map[string]any{"error": "create_failed", "message": "failed to create product"}
		if res != nil && res.Serial != "" {
			// The serial is spent; staff need it to finish by hand.
			failure["serial"] = res.Serial
		}
		return jsonResp(http.StatusInternalServerError, failure)
	}

	status := "success"
	if !res.Outcome.OK() {
		status = string(res.Outcome.Status)
	}
	out := map[string]any{
		"status":        status,
		"serial":        res.Serial,
		"product_id":    res.ProductID,
		"product_title": res.ProductTitle,
		"product_url":   res.ProductURL,
		"message":       draftMessage,
	}
	if len(res.Warnings) > 0 {
		out["warnings"] = res.Warnings
	}
	return jsonResp(http.StatusOK, out)
}
