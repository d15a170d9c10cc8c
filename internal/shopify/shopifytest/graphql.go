package shopifytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

var gqlOps = []string{
	"orderEditBegin",
	"orderEditAddVariant",
	"orderEditSetQuantity",
	"orderEditCommit",
	"publishablePublish",
	"publications",
}

func (s *Server) serveGraphQL(w http.ResponseWriter, raw []byte) {
	var req gqlRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, `{"errors":"bad json"}`, 400)
		return
	}

	op := ""
	for _, name := range gqlOps {
		if strings.Contains(req.Query, name+"(") || strings.Contains(req.Query, "query "+name) {
			op = name
			break
		}
	}
	s.Calls = append(s.Calls, "graphql:"+op)

	if status, ok := s.failureFor("graphql:" + op); ok {
		if status == http.StatusOK {
			writeJSON(w, 200, map[string]any{"data": map[string]any{
				op: map[string]any{"userErrors": []map[string]any{{"field": []string{"id"}, "message": "injected user error"}}},
			}})
			return
		}
		http.Error(w, `{"errors":"injected failure"}`, status)
		return
	}

	str := func(k string) string { v, _ := req.Variables[k].(string); return v }
	num := func(k string) int { v, _ := req.Variables[k].(float64); return int(v) }

	switch op {
	case "orderEditBegin":
		orderID := shopify.GIDNumber(str("id"))
		o, ok := s.Orders[orderID]
		if !ok {
			writeUserError(w, op, "order does not exist")
			return
		}
		s.nextID++
		calcID := fmt.Sprintf("gid://shopify/CalculatedOrder/%d", s.nextID)
		s.edits[calcID] = &edit{orderID: orderID, qty: map[int64]int{}}
		nodes := []map[string]any{}
		for _, li := range o.LineItems {
			nodes = append(nodes, map[string]any{"id": shopify.CalculatedLineItemGID(li.ID), "quantity": li.Remaining()})
		}
		writeJSON(w, 200, map[string]any{"data": map[string]any{op: map[string]any{
			"calculatedOrder": map[string]any{"id": calcID, "lineItems": map[string]any{"nodes": nodes}},
			"userErrors":      []any{},
		}}})

	case "orderEditAddVariant":
		e, ok := s.edits[str("id")]
		if !ok {
			writeUserError(w, op, "unknown calculated order")
			return
		}
		e.adds = append(e.adds, editAdd{variantID: shopify.GIDNumber(str("variantId")), quantity: num("quantity")})
		s.nextID++
		writeJSON(w, 200, map[string]any{"data": map[string]any{op: map[string]any{
			"calculatedLineItem": map[string]any{"id": fmt.Sprintf("gid://shopify/CalculatedLineItem/new-%d", s.nextID), "quantity": num("quantity")},
			"userErrors":         []any{},
		}}})

	case "orderEditSetQuantity":
		e, ok := s.edits[str("id")]
		if !ok {
			writeUserError(w, op, "unknown calculated order")
			return
		}
		e.qty[shopify.GIDNumber(str("lineItemId"))] = num("quantity")
		writeJSON(w, 200, map[string]any{"data": map[string]any{op: map[string]any{"userErrors": []any{}}}})

	case "orderEditCommit":
		e, ok := s.edits[str("id")]
		if !ok {
			writeUserError(w, op, "unknown calculated order")
			return
		}
		delete(s.edits, str("id"))
		o := s.Orders[e.orderID]
		if s.DiscardCommits {
			e = &edit{orderID: e.orderID}
		}
		for i := range o.LineItems {
			if q, ok := e.qty[o.LineItems[i].ID]; ok {
				o.LineItems[i].CurrentQuantity = &q
			}
		}
		for _, a := range e.adds {
			s.nextID++
			q := a.quantity
			li := shopify.LineItem{ID: s.nextID, VariantID: a.variantID, Quantity: q, CurrentQuantity: &q}
			for _, p := range s.Products {
				for _, v := range p.Variants {
					if v.ID == a.variantID {
						li.ProductID = p.ID
						li.Title = p.Title
						li.SKU = v.SKU
					}
				}
			}
			o.LineItems = append(o.LineItems, li)
		}
		writeJSON(w, 200, map[string]any{"data": map[string]any{op: map[string]any{
			"order":      map[string]any{"id": shopify.OrderGID(e.orderID)},
			"userErrors": []any{},
		}}})

	case "publications":
		writeJSON(w, 200, map[string]any{"data": map[string]any{"publications": map[string]any{"nodes": s.Publications}}})

	case "publishablePublish":
		productID := shopify.GIDNumber(str("id"))
		input, _ := req.Variables["input"].([]any)
		for _, in := range input {
			m, _ := in.(map[string]any)
			id, _ := m["publicationId"].(string)
			s.Published[productID] = append(s.Published[productID], id)
		}
		writeJSON(w, 200, map[string]any{"data": map[string]any{op: map[string]any{"userErrors": []any{}}}})

	default:
		writeJSON(w, 200, map[string]any{"errors": []map[string]any{{"message": "unknown operation"}}})
	}
}

func writeUserError(w http.ResponseWriter, op, msg string) {
	writeJSON(w, 200, map[string]any{"data": map[string]any{
		op: map[string]any{"userErrors": []map[string]any{{"field": []string{"id"}, "message": msg}}},
	}})
}
