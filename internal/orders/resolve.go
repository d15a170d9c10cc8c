package orders

import (
	"context"
	"strconv"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

type OrderFinder interface {
	FindOrderByName(ctx context.Context, number string) (*shopify.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*shopify.Order, error)
}

// Resolve finds an order typed by a person: first by display number, then,
// when the input is numeric, by id. Returns nil, nil when neither matches.
func Resolve(ctx context.Context, api OrderFinder, input string) (*shopify.Order, error) {
	number := NormalizeOrderNumber(input)
	if number == "" {
		return nil, nil
	}

	o, err := api.FindOrderByName(ctx, number)
	if err != nil {
		return nil, err
	}
	if o != nil {
		return o, nil
	}

	id, err := strconv.ParseInt(number, 10, 64)
	if err != nil || id <= 0 {
		return nil, nil
	}
	o, err = api.GetOrder(ctx, id)
	if err != nil {
		if shopify.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}
