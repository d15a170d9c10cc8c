package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

const (
	SerialNamespace = "linear_clockworks"
	SerialKey       = "serial_number"
)

type OrderAPI interface {
	GetOrder(ctx context.Context, orderID int64) (*shopify.Order, error)
	UpdateOrderNote(ctx context.Context, orderID int64, note string) error
	CreateMetafield(ctx context.Context, mf shopify.Metafield) (*shopify.Metafield, error)
}

// Mutator patches orders after serials are issued.
type Mutator struct {
	api OrderAPI
}

func NewMutator(api OrderAPI) *Mutator {
	return &Mutator{api: api}
}

// AppendNote adds lines to the end of the order note and writes the whole
// note back. There is no concurrency check: a note edited in between is
// overwritten.
func (m *Mutator) AppendNote(ctx context.Context, orderID int64, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	o, err := m.api.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	if err := m.api.UpdateOrderNote(ctx, orderID, AppendNoteText(o.Note, lines)); err != nil {
		return fmt.Errorf("update note on order %d: %w", orderID, err)
	}
	return nil
}

func AppendNoteText(current string, lines []string) string {
	add := strings.Join(lines, "\n")
	if strings.TrimSpace(current) == "" {
		return add
	}
	return strings.TrimRight(current, "\n") + "\n" + add
}

// SerialNoteLine formats one serial for the order note, e.g. "Serial: LCK-1010".
func SerialNoteLine(label, serial string) string {
	return label + ": " + serial
}

// AttachLineItemSerial stores serial on the line item itself so it survives
// note edits.
func (m *Mutator) AttachLineItemSerial(ctx context.Context, orderID, lineItemID int64, serial string) error {
	_, err := m.api.CreateMetafield(ctx, shopify.Metafield{
		Namespace:     SerialNamespace,
		Key:           SerialKey,
		Type:          "single_line_text_field",
		Value:         shopify.MetafieldValue(serial),
		OwnerResource: "line_item",
		OwnerID:       lineItemID,
	})
	if err != nil {
		return fmt.Errorf("attach serial to line item %d of order %d: %w", lineItemID, orderID, err)
	}
	return nil
}
