package shopify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LineItem struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	SKU             string `json:"sku"`
	Quantity        int    `json:"quantity"`
	CurrentQuantity *int   `json:"current_quantity,omitempty"`
	ProductID       int64  `json:"product_id"`
	VariantID       int64  `json:"variant_id"`
}

// Remaining returns current_quantity when the platform sent it, quantity otherwise.
func (li LineItem) Remaining() int {
	if li.CurrentQuantity != nil {
		return *li.CurrentQuantity
	}
	return li.Quantity
}

type Order struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Note      string     `json:"note"`
	CreatedAt string     `json:"created_at"`
	Customer  *Customer  `json:"customer"`
	LineItems []LineItem `json:"line_items"`
}

func (o Order) CustomerName() string {
	if o.Customer == nil {
		return ""
	}
	return strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
}

type Image struct {
	ID       int64  `json:"id,omitempty"`
	Src      string `json:"src"`
	Position int    `json:"position,omitempty"`
	Alt      string `json:"alt,omitempty"`
}

type Variant struct {
	ID                  int64   `json:"id,omitempty"`
	ProductID           int64   `json:"product_id,omitempty"`
	SKU                 string  `json:"sku"`
	Price               string  `json:"price"`
	Weight              float64 `json:"weight,omitempty"`
	WeightUnit          string  `json:"weight_unit,omitempty"`
	InventoryManagement string  `json:"inventory_management,omitempty"`
	InventoryQuantity   int     `json:"inventory_quantity,omitempty"`
	InventoryPolicy     string  `json:"inventory_policy,omitempty"`
}

type Product struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	Status      string    `json:"status,omitempty"`
	Tags        string    `json:"tags,omitempty"`
	Images      []Image   `json:"images,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
}

// FirstVariant returns the zero Variant when the product has none.
func (p Product) FirstVariant() Variant {
	if len(p.Variants) == 0 {
		return Variant{}
	}
	return p.Variants[0]
}

// MetafieldValue accepts both the string and the bare JSON number encodings
// the Admin REST API uses depending on the metafield type.
type MetafieldValue string

func (v *MetafieldValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*v = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = MetafieldValue(s)
		return nil
	}
	*v = MetafieldValue(string(b))
	return nil
}

func (v MetafieldValue) Int64() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("metafield value %q is not an integer: %w", string(v), err)
	}
	return n, nil
}

type Metafield struct {
	ID            int64          `json:"id,omitempty"`
	Namespace     string         `json:"namespace"`
	Key           string         `json:"key"`
	Type          string         `json:"type"`
	Value         MetafieldValue `json:"value"`
	OwnerResource string         `json:"owner_resource,omitempty"`
	OwnerID       int64          `json:"owner_id,omitempty"`
}

func ProductGID(id int64) string {
	return fmt.Sprintf("gid://shopify/Product/%d", id)
}

func OrderGID(id int64) string {
	return fmt.Sprintf("gid://shopify/Order/%d", id)
}

func VariantGID(id int64) string {
	return fmt.Sprintf("gid://shopify/ProductVariant/%d", id)
}

func CalculatedLineItemGID(id int64) string {
	return fmt.Sprintf("gid://shopify/CalculatedLineItem/%d", id)
}

// GIDNumber returns the trailing numeric segment of a global id, or 0.
func GIDNumber(gid string) int64 {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		gid = gid[i+1:]
	}
	if i := strings.Index(gid, "?"); i >= 0 {
		gid = gid[:i]
	}
	n, err := strconv.ParseInt(gid, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
