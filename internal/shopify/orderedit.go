package shopify

import "context"

type CalculatedLineItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CalculatedOrder struct {
	ID        string               `json:"id"`
	LineItems []CalculatedLineItem `json:"lineItems"`
}

// LineItem finds the calculated line backing an existing order line item.
func (co *CalculatedOrder) LineItem(lineItemID int64) (CalculatedLineItem, bool) {
	for _, li := range co.LineItems {
		if GIDNumber(li.ID) == lineItemID {
			return li, true
		}
	}
	return CalculatedLineItem{}, false
}

const orderEditBeginMutation = `
mutation orderEditBegin($id: ID!) {
  orderEditBegin(id: $id) {
    calculatedOrder {
      id
      lineItems(first: 100) { nodes { id quantity } }
    }
    userErrors { field message }
  }
}`

type orderEditBeginData struct {
	OrderEditBegin struct {
		CalculatedOrder *struct {
			ID        string `json:"id"`
			LineItems struct {
				Nodes []CalculatedLineItem `json:"nodes"`
			} `json:"lineItems"`
		} `json:"calculatedOrder"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"orderEditBegin"`
}

// BeginOrderEdit opens an edit session on an order. Nothing changes on the
// order until the session is committed.
func (c *Client) BeginOrderEdit(ctx context.Context, orderID int64) (*CalculatedOrder, error) {
	resp, err := PostGraphQL[orderEditBeginData](ctx, c, "orderEditBegin", orderEditBeginMutation, map[string]any{
		"id": OrderGID(orderID),
	})
	if err != nil {
		return nil, err
	}
	d := resp.Data.OrderEditBegin
	if err := userErrorsErr("orderEditBegin", d.UserErrors); err != nil {
		return nil, err
	}
	if d.CalculatedOrder == nil {
		return nil, &MutationError{Op: "orderEditBegin", Messages: []string{"no calculated order returned"}}
	}
	return &CalculatedOrder{ID: d.CalculatedOrder.ID, LineItems: d.CalculatedOrder.LineItems.Nodes}, nil
}

const orderEditAddVariantMutation = `
mutation orderEditAddVariant($id: ID!, $variantId: ID!, $quantity: Int!) {
  orderEditAddVariant(id: $id, variantId: $variantId, quantity: $quantity, allowDuplicates: true) {
    calculatedLineItem { id quantity }
    userErrors { field message }
  }
}`

type orderEditAddVariantData struct {
	OrderEditAddVariant struct {
		CalculatedLineItem *CalculatedLineItem `json:"calculatedLineItem"`
		UserErrors         []UserError         `json:"userErrors"`
	} `json:"orderEditAddVariant"`
}

func (c *Client) AddVariantToEdit(ctx context.Context, calculatedOrderID string, variantID int64, quantity int) (string, error) {
	resp, err := PostGraphQL[orderEditAddVariantData](ctx, c, "orderEditAddVariant", orderEditAddVariantMutation, map[string]any{
		"id":        calculatedOrderID,
		"variantId": VariantGID(variantID),
		"quantity":  quantity,
	})
	if err != nil {
		return "", err
	}
	d := resp.Data.OrderEditAddVariant
	if err := userErrorsErr("orderEditAddVariant", d.UserErrors); err != nil {
		return "", err
	}
	if d.CalculatedLineItem == nil {
		return "", &MutationError{Op: "orderEditAddVariant", Messages: []string{"no line item returned"}}
	}
	return d.CalculatedLineItem.ID, nil
}

const orderEditSetQuantityMutation = `
mutation orderEditSetQuantity($id: ID!, $lineItemId: ID!, $quantity: Int!) {
  orderEditSetQuantity(id: $id, lineItemId: $lineItemId, quantity: $quantity, restock: true) {
    calculatedLineItem { id quantity }
    userErrors { field message }
  }
}`

type orderEditSetQuantityData struct {
	OrderEditSetQuantity struct {
		UserErrors []UserError `json:"userErrors"`
	} `json:"orderEditSetQuantity"`
}

// SetEditQuantity changes a calculated line's quantity; 0 removes the line.
func (c *Client) SetEditQuantity(ctx context.Context, calculatedOrderID, calculatedLineItemID string, quantity int) error {
	resp, err := PostGraphQL[orderEditSetQuantityData](ctx, c, "orderEditSetQuantity", orderEditSetQuantityMutation, map[string]any{
		"id":         calculatedOrderID,
		"lineItemId": calculatedLineItemID,
		"quantity":   quantity,
	})
	if err != nil {
		return err
	}
	return userErrorsErr("orderEditSetQuantity", resp.Data.OrderEditSetQuantity.UserErrors)
}

const orderEditCommitMutation = `
mutation orderEditCommit($id: ID!, $staffNote: String) {
  orderEditCommit(id: $id, notifyCustomer: false, staffNote: $staffNote) {
    order { id }
    userErrors { field message }
  }
}`

type orderEditCommitData struct {
	OrderEditCommit struct {
		Order *struct {
			ID string `json:"id"`
		} `json:"order"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"orderEditCommit"`
}

func (c *Client) CommitOrderEdit(ctx context.Context, calculatedOrderID, staffNote string) error {
	resp, err := PostGraphQL[orderEditCommitData](ctx, c, "orderEditCommit", orderEditCommitMutation, map[string]any{
		"id":        calculatedOrderID,
		"staffNote": staffNote,
	})
	if err != nil {
		return err
	}
	d := resp.Data.OrderEditCommit
	if err := userErrorsErr("orderEditCommit", d.UserErrors); err != nil {
		return err
	}
	if d.Order == nil {
		return &MutationError{Op: "orderEditCommit", Messages: []string{"no order returned"}}
	}
	return nil
}
