package shopify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var out struct {
		Order *Order `json:"order"`
	}
	if err := c.do(ctx, "GET", fmt.Sprintf("orders/%d.json", orderID), nil, &out); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, fmt.Errorf("shopify GET orders/%d.json: empty order", orderID)
	}
	return out.Order, nil
}

// FindOrderByName looks an order up by its display number ("#2803" or
// "2803"). Returns nil, nil when no order carries that name.
func (c *Client) FindOrderByName(ctx context.Context, number string) (*Order, error) {
	number = strings.TrimPrefix(strings.TrimSpace(number), "#")
	if number == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("name", "#"+number)
	q.Set("status", "any")

	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.do(ctx, "GET", "orders.json?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Orders) == 0 {
		return nil, nil
	}
	return &out.Orders[0], nil
}

// UpdateOrderNote replaces the whole note. There is no concurrency check:
// the last writer wins.
func (c *Client) UpdateOrderNote(ctx context.Context, orderID int64, note string) error {
	body := map[string]any{
		"order": map[string]any{
			"id":   orderID,
			"note": note,
		},
	}
	return c.do(ctx, "PUT", fmt.Sprintf("orders/%d.json", orderID), body, nil)
}
