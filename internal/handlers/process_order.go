package handlers

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
	"github.com/linearclockworks/shopify-serial--webhook/internal/orders"
	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
	"github.com/linearclockworks/shopify-serial--webhook/internal/pipeline"
)

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!DOCTYPE html>
<html>
<head>
<title>{{.}}</title>
<style>
body { font-family: Arial, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
form { background: #f5f5f5; padding: 20px; border-radius: 5px; }
label { display: block; margin-bottom: 5px; font-weight: bold; }
input { width: 100%; padding: 8px; margin-bottom: 15px; border: 1px solid #ddd; border-radius: 3px; box-sizing: border-box; }
button { background: #4CAF50; color: white; padding: 10px 20px; border: none; border-radius: 3px; cursor: pointer; font-size: 16px; }
.note { color: #666; font-size: 14px; margin-top: 10px; }
.success { background: #e8f5e9; padding: 20px; border-radius: 5px; color: #2e7d32; }
.warning { background: #fff8e1; padding: 20px; border-radius: 5px; color: #8d6e00; }
.error { background: #ffebee; padding: 20px; border-radius: 5px; color: #c62828; }
a { color: #1976d2; text-decoration: none; }
code { background: #f5f5f5; padding: 2px 5px; border-radius: 3px; }
</style>
</head>
<body>
{{end}}

{{define "foot"}}<p><a href="/api/process-order">&larr; {{.}}</a></p>
</body>
</html>
{{end}}

{{define "form"}}{{template "head" "Manual Order Processing"}}
<h2>Manual Order Processing</h2>
<p>Use this tool to process orders created manually in Shopify Admin.</p>
<form method="POST">
<label>Order Number:</label>
<input type="text" name="order_number" placeholder="2803 or #2803" required autofocus>
<button type="submit">Process Order</button>
<div class="note">Enter the order number from Shopify (with or without #).<br>
Serial numbers are assigned and the tracking sheets updated automatically.</div>
</form>
</body>
</html>
{{end}}

{{define "not_found"}}{{template "head" "Order Not Found"}}
<div class="error">
<h2>Order Not Found</h2>
<p>Could not find order #{{.}} in Shopify.</p>
<p>Make sure the order number is correct and the order exists.</p>
</div>
{{template "foot" "Try again"}}{{end}}

{{define "failure"}}{{template "head" "Error"}}
<div class="error">
<h2>Error Processing Order</h2>
<p><code>{{.}}</code></p>
</div>
{{template "foot" "Try again"}}{{end}}

{{define "processed"}}{{template "head" "Order Processed"}}
<div class="{{if eq .Status "success"}}success{{else}}warning{{end}}">
<h2>{{if eq .Status "success"}}Order Processed Successfully!{{else}}Order Processed ({{.Status}}){{end}}</h2>
<p><strong>Order:</strong> {{.Order}}</p>
{{range .Families}}<p><strong>{{.Name}} serials:</strong> {{.Serials}}</p>
{{else}}<p><em>No serials assigned (no serialised products found)</em></p>
{{end}}{{if .Issues}}<p><strong>Needs attention:</strong></p>
<ul>{{range .Issues}}<li>{{.}}</li>{{end}}</ul>
{{end}}{{if .Skipped}}<p><strong>Skipped:</strong></p>
<ul>{{range .Skipped}}<li>{{.SKU}}: {{.Reason}}</li>{{end}}</ul>
{{end}}</div>
{{template "foot" "Process another order"}}{{end}}
`))

type familySerials struct {
	Name    string
	Serials string
}

type processedPage struct {
	Order    string
	Status   string
	Families []familySerials
	Issues   []string
	Skipped  []pipeline.Skip
}

func newProcessedPage(res *pipeline.Result) processedPage {
	pg := processedPage{Order: res.OrderNumber, Status: res.Status(), Skipped: res.Skipped}
	idx := map[string]int{}
	var lists [][]string
	for _, u := range res.Units {
		if u.Serial != "" {
			i, ok := idx[u.Family]
			if !ok {
				i = len(pg.Families)
				idx[u.Family] = i
				pg.Families = append(pg.Families, familySerials{Name: u.Family})
				lists = append(lists, nil)
			}
			lists[i] = append(lists[i], u.Serial)
		}
		if u.Status != outcome.Ok {
			for _, issue := range u.Issues {
				pg.Issues = append(pg.Issues, u.SKU+": "+issue)
			}
		}
	}
	for i := range pg.Families {
		pg.Families[i].Serials = strings.Join(lists[i], ", ")
	}
	return pg
}

func render(status int, name string, data any) (events.APIGatewayV2HTTPResponse, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return errResp(http.StatusInternalServerError, "internal", "page not rendered")
	}
	return htmlResp(status, buf.String())
}

func (rt *Router) processOrderForm(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return render(http.StatusOK, "form", nil)
}

func (rt *Router) processOrder(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	log := logging.FromContext(ctx)

	raw, err := body(req)
	if err != nil {
		return render(http.StatusBadRequest, "failure", "invalid body encoding")
	}
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return render(http.StatusBadRequest, "failure", "invalid form")
	}
	number := orders.NormalizeOrderNumber(form.Get("order_number"))
	if number == "" {
		return render(http.StatusBadRequest, "failure", "order number is required")
	}
	log = log.With(zap.String("order_input", number))

	o, err := rt.opts.Pipeline.ResolveOrder(ctx, number)
	if err != nil {
		log.Error("order lookup failed", zap.Error(err))
		return render(http.StatusInternalServerError, "failure", "order lookup failed")
	}
	if o == nil {
		log.Info("order not found")
		return render(http.StatusNotFound, "not_found", number)
	}

	res := rt.opts.Pipeline.ProcessOrder(ctx, o)
	return render(http.StatusOK, "processed", newProcessedPage(res))
}
