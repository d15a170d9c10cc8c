package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify/shopifytest"
)

func claretMaster() *shopify.Product {
	return &shopify.Product{
		ID:          12,
		Title:       "Claret: Walnut",
		Handle:      "claret-walnut",
		BodyHTML:    "<p>Walnut case</p>",
		Vendor:      "Linear Clockworks",
		ProductType: "Clock",
		Images:      []shopify.Image{{Src: "https://cdn.example.com/claret.jpg", Position: 1, Alt: "Claret"}, {Src: "https://cdn.example.com/back.jpg"}},
		Variants:    []shopify.Variant{{ID: 120, SKU: "LCK-CLARET", Price: "1450.00", Weight: 4.2, WeightUnit: "lb"}},
	}
}

func productMetafield(mfs []shopify.Metafield, key string) string {
	for _, mf := range mfs {
		if mf.Key == key {
			return string(mf.Value)
		}
	}
	return ""
}

func TestBuildClone(t *testing.T) {
	p := BuildClone(claretMaster(), CloneRequest{Mode: ForOrder, Serial: "LCK-1010", OrderNumber: "#1001"})
	assert.Equal(t, "-- Claret: Walnut - #1001", p.Title)
	assert.Equal(t, "claret-walnut-lck-1010", p.Handle)
	assert.Equal(t, "active", p.Status)
	assert.Equal(t, "<p>Walnut case</p>", p.BodyHTML)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://cdn.example.com/back.jpg", p.Images[1].Src)
	assert.Equal(t, 1, p.Images[1].Position)
	require.Len(t, p.Variants, 1)
	v := p.Variants[0]
	assert.Equal(t, "LCK-1010", v.SKU)
	assert.Equal(t, "1450.00", v.Price)
	assert.Equal(t, 4.2, v.Weight)
	assert.Equal(t, "lb", v.WeightUnit)
	assert.Equal(t, 1, v.InventoryQuantity)
	assert.Equal(t, "deny", v.InventoryPolicy)

	a := BuildClone(claretMaster(), CloneRequest{Mode: Available, Serial: "LCK-1011"})
	assert.Equal(t, "-- Claret: Walnut - Available", a.Title)
	assert.Equal(t, "draft", a.Status)
	assert.Equal(t, "available", a.Tags)
}

func TestCloneAvailable(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.Publications = []shopify.Publication{{ID: "gid://shopify/Publication/1", Name: "Online Store"}}
	c := NewCloner(srv.Client(), nil, nil)

	cl, err := c.CloneAvailable(context.Background(), claretMaster(), "LCK-1011")
	require.NoError(t, err)
	assert.Equal(t, outcome.Ok, cl.Outcome.Status)
	assert.NotZero(t, cl.VariantID)

	mfs := srv.ProductMetafields[cl.Product.ID]
	require.Len(t, mfs, 4)
	assert.Equal(t, "gid://shopify/Product/12", productMetafield(mfs, "master_product_id"))
	assert.Equal(t, "LCK-1011", productMetafield(mfs, "serial_number"))
	assert.Equal(t, "false", productMetafield(mfs, "is_order_product"))
	assert.Equal(t, "true", productMetafield(mfs, "is_available_product"))
	assert.Empty(t, srv.Published[cl.Product.ID])
}

func TestCloneForOrderPublishesToConfiguredChannels(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.Publications = []shopify.Publication{
		{ID: "gid://shopify/Publication/1", Name: "Online Store"},
		{ID: "gid://shopify/Publication/2", Name: "Point of Sale"},
	}
	c := NewCloner(srv.Client(), []string{"point of sale"}, nil)

	cl, err := c.CloneForOrder(context.Background(), claretMaster(), "#1001", "LCK-1010")
	require.NoError(t, err)
	assert.Equal(t, outcome.Ok, cl.Outcome.Status)

	mfs := srv.ProductMetafields[cl.Product.ID]
	require.Len(t, mfs, 5)
	assert.Equal(t, "#1001", productMetafield(mfs, "order_number"))
	assert.Equal(t, "true", productMetafield(mfs, "is_order_product"))
	assert.Equal(t, []string{"gid://shopify/Publication/2"}, srv.Published[cl.Product.ID])
}

func TestCloneDegradesOnMetadataFailures(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.FailOn("POST products/", 500)
	srv.FailOn("graphql:publications", 500)
	c := NewCloner(srv.Client(), nil, nil)

	cl, err := c.CloneForOrder(context.Background(), claretMaster(), "#1001", "LCK-1010")
	require.NoError(t, err)
	assert.Equal(t, outcome.Degraded, cl.Outcome.Status)
	assert.Len(t, cl.Outcome.Reasons, 6)
}

func TestCloneCreateFailure(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.FailOn("POST products.json", 422)

	_, err := NewCloner(srv.Client(), nil, nil).CloneAvailable(context.Background(), claretMaster(), "LCK-1")
	require.Error(t, err)
	assert.Empty(t, srv.Products)

	_, err = NewCloner(srv.Client(), nil, nil).CloneAvailable(context.Background(), nil, "LCK-1")
	require.ErrorIs(t, err, ErrMasterNotFound)
}

// Cloning is not idempotent: the same inputs twice give two products and
// use up two serials.
func TestCloneForOrderTwiceCreatesTwoClones(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.SetCounter("custom", "global_serial_counter", 1010)
	clocks := &serials.Family{Name: "clocks", CounterNamespace: "custom", CounterKey: "global_serial_counter", SerialPrefix: "LCK-"}
	alloc := serials.NewAllocator(serials.NewMetafieldSequencer(srv.Client(), nil))
	c := NewCloner(srv.Client(), nil, nil)
	master := claretMaster()

	var ids []int64
	var skus []string
	for i := 0; i < 2; i++ {
		a, err := alloc.Allocate(context.Background(), clocks)
		require.NoError(t, err)
		cl, err := c.CloneForOrder(context.Background(), master, "#1001", a.Serial)
		require.NoError(t, err)
		ids = append(ids, cl.Product.ID)
		skus = append(skus, cl.Product.FirstVariant().SKU)
	}

	assert.NotEqual(t, ids[0], ids[1])
	assert.Equal(t, []string{"LCK-1010", "LCK-1011"}, skus)
	n, _ := srv.Counter("custom", "global_serial_counter")
	assert.Equal(t, int64(1012), n)
	assert.Len(t, srv.Products, 2)
}

func TestArchive(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.AddProduct(shopify.Product{ID: 77, Title: "-- Claret: Walnut - #1001", Status: "active"})
	c := NewCloner(srv.Client(), nil, nil)

	require.NoError(t, c.Archive(context.Background(), 77))
	assert.Equal(t, "archived", srv.Products[77].Status)

	require.Error(t, c.Archive(context.Background(), 78))
}
