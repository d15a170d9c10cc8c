package shopify

import (
	"context"
	"fmt"
	"net/url"
)

// FindShopMetafield returns the shop-owned metafield for namespace+key, or
// nil, nil when it does not exist.
func (c *Client) FindShopMetafield(ctx context.Context, namespace, key string) (*Metafield, error) {
	q := url.Values{}
	q.Set("namespace", namespace)
	q.Set("key", key)

	var out struct {
		Metafields []Metafield `json:"metafields"`
	}
	if err := c.do(ctx, "GET", "metafields.json?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Metafields) == 0 {
		return nil, nil
	}
	return &out.Metafields[0], nil
}

// CreateMetafield creates a metafield. OwnerResource/OwnerID scope it to a
// resource such as a line item; left empty it belongs to the shop.
func (c *Client) CreateMetafield(ctx context.Context, mf Metafield) (*Metafield, error) {
	var out struct {
		Metafield *Metafield `json:"metafield"`
	}
	if err := c.do(ctx, "POST", "metafields.json", map[string]any{"metafield": mf}, &out); err != nil {
		return nil, err
	}
	if out.Metafield == nil {
		return &mf, nil
	}
	return out.Metafield, nil
}

func (c *Client) UpdateMetafieldValue(ctx context.Context, id int64, value, typ string) error {
	body := map[string]any{
		"metafield": map[string]any{
			"id":    id,
			"value": value,
			"type":  typ,
		},
	}
	return c.do(ctx, "PUT", fmt.Sprintf("metafields/%d.json", id), body, nil)
}

func (c *Client) CreateProductMetafield(ctx context.Context, productID int64, mf Metafield) error {
	return c.do(ctx, "POST", fmt.Sprintf("products/%d/metafields.json", productID), map[string]any{"metafield": mf}, nil)
}
