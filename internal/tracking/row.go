package tracking

import (
	"fmt"
	"strings"

	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
)

// Row is one issued serial as mirrored to the spreadsheet. Rows are only
// ever created, never updated.
type Row struct {
	Serial      string
	Family      string
	ProductName string
	SKU         string
	OrderNumber string
	Customer    string
	Date        string
}

// SplitProductName splits "Claret: Walnut" into "Claret" and "Walnut".
func SplitProductName(name string) (string, string) {
	head, tail, ok := strings.Cut(name, ":")
	if !ok {
		return strings.TrimSpace(name), ""
	}
	return strings.TrimSpace(head), strings.TrimSpace(tail)
}

// Layout renders a row into the fixed-width cells of one tab. Columns
// beyond the ones filled here are left blank for manual entry.
type Layout func(f *serials.Family, r Row) []any

const (
	clocksWidth    = 23
	cleartimeWidth = 8
)

var layouts = map[string]Layout{
	"clocks":    clocksLayout,
	"cleartime": cleartimeLayout,
}

// clocks: serial number, name, description, availability, order number,
// brass tag, pointer, font, special order, order date, then free columns.
func clocksLayout(f *serials.Family, r Row) []any {
	name, desc := SplitProductName(r.ProductName)
	cells := blank(clocksWidth)
	cells[0] = f.StripSerial(r.Serial)
	cells[1] = name
	cells[2] = desc
	cells[4] = r.OrderNumber
	cells[9] = r.Date
	return cells
}

// cleartime: serial, SKU, event tags, order number, customer, run length,
// steps, comments.
func cleartimeLayout(_ *serials.Family, r Row) []any {
	cells := blank(cleartimeWidth)
	cells[0] = r.Serial
	cells[1] = r.SKU
	cells[3] = r.OrderNumber
	cells[4] = r.Customer
	return cells
}

func blank(n int) []any {
	cells := make([]any, n)
	for i := range cells {
		cells[i] = ""
	}
	return cells
}

// Cells renders r with the layout the family's sheet names.
func Cells(f *serials.Family, r Row) ([]any, error) {
	l, ok := layouts[f.Sheet.Layout]
	if !ok {
		return nil, fmt.Errorf("family %s: unknown sheet layout %q", f.Name, f.Sheet.Layout)
	}
	return l(f, r), nil
}
