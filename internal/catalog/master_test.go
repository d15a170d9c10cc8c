package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify/shopifytest"
)

func TestNormalizeStyle(t *testing.T) {
	assert.Equal(t, "claret:", NormalizeStyle("Claret"))
	assert.Equal(t, "claret:", NormalizeStyle("  claret: "))
	assert.Equal(t, "", NormalizeStyle("   "))
}

func TestFindMasterSkipsClones(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.AddProduct(shopify.Product{ID: 10, Title: "-- Claret: Walnut - Available"})
	srv.AddProduct(shopify.Product{ID: 11, Title: "Claretta Lamp"})
	srv.AddProduct(shopify.Product{ID: 12, Title: "Claret: Walnut"})
	srv.AddProduct(shopify.Product{ID: 13, Title: "Claret: Oak"})

	r := NewResolver(srv.Client(), 250, 20)
	p, err := r.FindMaster(context.Background(), "Claret")
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.ID)
	assert.Equal(t, "Claret: Walnut", p.Title)
}

func TestFindMasterPagesBySinceID(t *testing.T) {
	srv := shopifytest.NewServer(t)
	for i := int64(1); i <= 7; i++ {
		srv.AddProduct(shopify.Product{ID: i, Title: fmt.Sprintf("Style %d: Walnut", i)})
	}

	p, err := NewResolver(srv.Client(), 2, 5).FindMaster(context.Background(), "style 7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, 4, srv.CallCount("GET products.json"))
}

func TestFindMasterBoundedScan(t *testing.T) {
	srv := shopifytest.NewServer(t)
	for i := int64(1); i <= 7; i++ {
		srv.AddProduct(shopify.Product{ID: i, Title: fmt.Sprintf("Style %d: Walnut", i)})
	}

	_, err := NewResolver(srv.Client(), 2, 2).FindMaster(context.Background(), "style 7")
	require.ErrorIs(t, err, ErrMasterNotFound)
	assert.Equal(t, 2, srv.CallCount("GET products.json"))

	_, err = NewResolver(srv.Client(), 2, 2).FindMaster(context.Background(), "")
	require.ErrorIs(t, err, ErrMasterNotFound)
}

func TestFindMasterRemoteFailure(t *testing.T) {
	srv := shopifytest.NewServer(t)
	srv.FailOn("GET products.json", 502)

	_, err := NewResolver(srv.Client(), 250, 20).FindMaster(context.Background(), "Claret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMasterNotFound)
	var rce *shopify.RemoteCallError
	assert.ErrorAs(t, err, &rce)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "claret-walnut", Slugify("  Claret: Walnut!! "))
	assert.Equal(t, "lck-1010", Slugify("LCK-1010"))
	assert.Equal(t, "", Slugify("--"))

	assert.Equal(t, "claret-walnut-lck-1010", CloneHandle("claret-walnut", "ignored", "LCK-1010"))
	assert.Equal(t, "claret-walnut-42", CloneHandle("", "Claret: Walnut", "42"))
	assert.NotEqual(t, "claret-walnut", CloneHandle("claret-walnut", "", "42"))
}
