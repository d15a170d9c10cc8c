package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

const DateLayout = "2006-01-02 15:04:05"

var ErrEmptyPayload = errors.New("empty order payload")

// ParseWebhookOrder decodes an orders/create webhook body.
func ParseWebhookOrder(raw []byte) (*shopify.Order, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrEmptyPayload
	}
	var o shopify.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decode order payload: %w", err)
	}
	if o.ID == 0 {
		return nil, errors.New("order payload without id")
	}
	return &o, nil
}

// OrderDate renders created_at for the tracking sheet, falling back to now
// when it is missing or unparsable.
func OrderDate(o *shopify.Order, now time.Time) string {
	if o != nil && o.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
			return t.Format(DateLayout)
		}
	}
	return now.Format(DateLayout)
}

// OrderNumber is the display number, e.g. "#1001", or the id when the
// order has no name.
func OrderNumber(o *shopify.Order) string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("%d", o.ID)
}

// NormalizeOrderNumber strips whitespace and a leading '#'.
func NormalizeOrderNumber(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "#")
}
