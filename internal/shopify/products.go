package shopify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

func (c *Client) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	var out struct {
		Product *Product `json:"product"`
	}
	if err := c.do(ctx, "GET", fmt.Sprintf("products/%d.json", productID), nil, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, fmt.Errorf("shopify GET products/%d.json: empty product", productID)
	}
	return out.Product, nil
}

// ListProducts returns up to limit products with an id greater than sinceID,
// in ascending id order. Passing the last id seen walks the catalog without
// the drift offset paging suffers under concurrent writes.
func (c *Client) ListProducts(ctx context.Context, sinceID int64, limit int) ([]Product, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if sinceID > 0 {
		q.Set("since_id", strconv.FormatInt(sinceID, 10))
	}

	var out struct {
		Products []Product `json:"products"`
	}
	if err := c.do(ctx, "GET", "products.json?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	var out struct {
		Product *Product `json:"product"`
	}
	if err := c.do(ctx, "POST", "products.json", map[string]any{"product": p}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil || out.Product.ID == 0 {
		return nil, fmt.Errorf("shopify POST products.json: no product in response")
	}
	return out.Product, nil
}

func (c *Client) UpdateProductStatus(ctx context.Context, productID int64, status string) error {
	body := map[string]any{
		"product": map[string]any{
			"id":     productID,
			"status": status,
		},
	}
	return c.do(ctx, "PUT", fmt.Sprintf("products/%d.json", productID), body, nil)
}
