package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

const MetafieldNamespace = "linear_clockworks"

type Mode int

const (
	ForOrder Mode = iota
	Available
)

// CloneRequest names one clone to build.
type CloneRequest struct {
	Mode        Mode
	Serial      string
	OrderNumber string
}

func (r CloneRequest) suffix() string {
	if r.Mode == Available {
		return "Available"
	}
	return r.OrderNumber
}

type ProductAPI interface {
	CreateProduct(ctx context.Context, p shopify.Product) (*shopify.Product, error)
	CreateProductMetafield(ctx context.Context, productID int64, mf shopify.Metafield) error
	UpdateProductStatus(ctx context.Context, productID int64, status string) error
	ListPublications(ctx context.Context) ([]shopify.Publication, error)
	PublishProduct(ctx context.Context, productID int64, publicationIDs []string) error
}

// Clone is a created product. Outcome is Degraded when the product exists
// but some of its metadata or channel listings are missing.
type Clone struct {
	Product   *shopify.Product
	VariantID int64
	Outcome   outcome.Outcome
}

type Cloner struct {
	api ProductAPI
	// channels restricts publication to these sales channel names; empty
	// means every channel.
	channels []string
	log      *zap.Logger
}

func NewCloner(api ProductAPI, channels []string, log *zap.Logger) *Cloner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cloner{api: api, channels: channels, log: log}
}

// BuildClone copies master into a single-variant product carrying serial as
// its SKU. Image sources are reused as they are.
func BuildClone(master *shopify.Product, req CloneRequest) shopify.Product {
	mv := master.FirstVariant()
	weightUnit := mv.WeightUnit
	if weightUnit == "" {
		weightUnit = "kg"
	}

	p := shopify.Product{
		Title:       fmt.Sprintf("%s %s - %s", serials.ProcessedMarker, master.Title, req.suffix()),
		Handle:      CloneHandle(master.Handle, master.Title, req.Serial),
		BodyHTML:    master.BodyHTML,
		Vendor:      master.Vendor,
		ProductType: master.ProductType,
		Status:      "active",
		Variants: []shopify.Variant{{
			SKU:                 req.Serial,
			Price:               mv.Price,
			Weight:              mv.Weight,
			WeightUnit:          weightUnit,
			InventoryManagement: "shopify",
			InventoryQuantity:   1,
			InventoryPolicy:     "deny",
		}},
	}
	if req.Mode == Available {
		p.Status = "draft"
		p.Tags = "available"
	}
	for _, img := range master.Images {
		pos := img.Position
		if pos == 0 {
			pos = 1
		}
		p.Images = append(p.Images, shopify.Image{Src: img.Src, Position: pos, Alt: img.Alt})
	}
	return p
}

func backReferences(master *shopify.Product, req CloneRequest) []shopify.Metafield {
	boolStr := func(b bool) shopify.MetafieldValue {
		if b {
			return "true"
		}
		return "false"
	}
	mfs := []shopify.Metafield{
		{Namespace: MetafieldNamespace, Key: "master_product_id", Type: "product_reference", Value: shopify.MetafieldValue(shopify.ProductGID(master.ID))},
		{Namespace: MetafieldNamespace, Key: "serial_number", Type: "single_line_text_field", Value: shopify.MetafieldValue(req.Serial)},
	}
	if req.Mode == ForOrder && req.OrderNumber != "" {
		mfs = append(mfs, shopify.Metafield{Namespace: MetafieldNamespace, Key: "order_number", Type: "single_line_text_field", Value: shopify.MetafieldValue(req.OrderNumber)})
	}
	return append(mfs,
		shopify.Metafield{Namespace: MetafieldNamespace, Key: "is_order_product", Type: "boolean", Value: boolStr(req.Mode == ForOrder)},
		shopify.Metafield{Namespace: MetafieldNamespace, Key: "is_available_product", Type: "boolean", Value: boolStr(req.Mode == Available)},
	)
}

// CloneForOrder creates a published, active clone of master for one order.
// Calling it twice creates two clones.
func (c *Cloner) CloneForOrder(ctx context.Context, master *shopify.Product, orderNumber, serial string) (*Clone, error) {
	return c.create(ctx, master, CloneRequest{Mode: ForOrder, Serial: serial, OrderNumber: orderNumber})
}

// CloneAvailable creates a draft clone tagged "available" for stock that is
// not tied to an order. Drafts are not published.
func (c *Cloner) CloneAvailable(ctx context.Context, master *shopify.Product, serial string) (*Clone, error) {
	return c.create(ctx, master, CloneRequest{Mode: Available, Serial: serial})
}

func (c *Cloner) create(ctx context.Context, master *shopify.Product, req CloneRequest) (*Clone, error) {
	if master == nil {
		return nil, ErrMasterNotFound
	}
	created, err := c.api.CreateProduct(ctx, BuildClone(master, req))
	if err != nil {
		return nil, fmt.Errorf("create clone of product %d: %w", master.ID, err)
	}

	cl := &Clone{Product: created, VariantID: created.FirstVariant().ID, Outcome: outcome.Outcome{Status: outcome.Ok}}
	log := c.log.With(zap.Int64("clone_id", created.ID), zap.String("serial", req.Serial))

	for _, mf := range backReferences(master, req) {
		if err := c.api.CreateProductMetafield(ctx, created.ID, mf); err != nil {
			log.Warn("clone metafield failed", zap.String("key", mf.Key), zap.Error(err))
			cl.Outcome.Degrade(fmt.Sprintf("metafield %s not set: %v", mf.Key, err))
		}
	}

	if req.Mode == ForOrder {
		if err := c.publish(ctx, created.ID); err != nil {
			log.Warn("clone publish failed", zap.Error(err))
			cl.Outcome.Degrade(fmt.Sprintf("not published: %v", err))
		}
	}
	return cl, nil
}

func (c *Cloner) publish(ctx context.Context, productID int64) error {
	pubs, err := c.api.ListPublications(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(pubs))
	for _, p := range pubs {
		if len(c.channels) == 0 || containsFold(c.channels, p.Name) {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no sales channel matches %v", c.channels)
	}
	return c.api.PublishProduct(ctx, productID, ids)
}

// Archive retires a clone that could not be placed into its order.
func (c *Cloner) Archive(ctx context.Context, productID int64) error {
	if err := c.api.UpdateProductStatus(ctx, productID, "archived"); err != nil {
		return fmt.Errorf("archive clone %d: %w", productID, err)
	}
	return nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}
