package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify/shopifytest"
)

func swapFixture(t *testing.T, qty int) *shopifytest.Server {
	t.Helper()
	srv := shopifytest.NewServer(t)
	srv.AddProduct(shopify.Product{ID: 300, Title: "-- Claret: Walnut - #1001", Variants: []shopify.Variant{{ID: 301, SKU: "LCK-1010"}}})
	srv.AddOrder(shopify.Order{ID: 5001, Name: "#1001", LineItems: []shopify.LineItem{
		{ID: 700, Title: "Claret: Walnut", SKU: "LCK-CLARET", Quantity: qty, ProductID: 12, VariantID: 120},
	}})
	return srv
}

func TestSwapCommitsAndVerifies(t *testing.T) {
	srv := swapFixture(t, 1)
	sw := NewSwapper(srv.Client(), nil).Swap(context.Background(), 5001, 700, 301, "serial LCK-1010")

	assert.Equal(t, SwapCommitted, sw.State)
	assert.Equal(t, []SwapState{SwapOpened, SwapLineAdded, SwapLineRemoved, SwapCommitted}, sw.Trail)
	assert.Equal(t, outcome.Ok, sw.Outcome.Status)
	assert.Equal(t, CompensateNone, sw.Compensation)

	o := srv.Order(5001)
	require.Len(t, o.LineItems, 2)
	assert.Equal(t, 0, o.LineItems[0].Remaining())
	assert.Equal(t, int64(301), o.LineItems[1].VariantID)
	assert.Equal(t, "LCK-1010", o.LineItems[1].SKU)
}

func TestSwapOneUnitOfMany(t *testing.T) {
	srv := swapFixture(t, 3)
	sw := NewSwapper(srv.Client(), nil).Swap(context.Background(), 5001, 700, 301, "")

	assert.Equal(t, SwapCommitted, sw.State)
	assert.Equal(t, 2, srv.Order(5001).LineItems[0].Remaining())
}

func TestSwapFailures(t *testing.T) {
	cases := []struct {
		name     string
		failOn   string
		status   int
		failedAt SwapState
		session  Compensation
	}{
		{"open", "graphql:orderEditBegin", 500, SwapPending, CompensateNone},
		{"add", "graphql:orderEditAddVariant", 200, SwapOpened, CompensateAbandonSession},
		{"remove", "graphql:orderEditSetQuantity", 502, SwapLineAdded, CompensateAbandonSession},
		{"commit", "graphql:orderEditCommit", 200, SwapLineRemoved, CompensateAbandonSession},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := swapFixture(t, 1)
			srv.FailOn(tc.failOn, tc.status)

			sw := NewSwapper(srv.Client(), nil).Swap(context.Background(), 5001, 700, 301, "")
			assert.Equal(t, SwapAborted, sw.State)
			assert.Equal(t, tc.failedAt, sw.FailedAt)
			assert.Equal(t, tc.session, sw.Session)
			assert.Equal(t, CompensateArchiveClone, sw.Compensation)
			assert.Equal(t, outcome.Failed, sw.Outcome.Status)

			o := srv.Order(5001)
			require.Len(t, o.LineItems, 1, "order must be unchanged")
			assert.Equal(t, 1, o.LineItems[0].Remaining())
		})
	}
}

func TestSwapUnknownLineAborts(t *testing.T) {
	srv := swapFixture(t, 1)
	sw := NewSwapper(srv.Client(), nil).Swap(context.Background(), 5001, 999, 301, "")

	assert.Equal(t, SwapAborted, sw.State)
	assert.Equal(t, SwapOpened, sw.FailedAt)
	assert.Equal(t, 0, srv.CallCount("graphql:orderEditAddVariant"))
}

func TestSwapVerificationFailureDegrades(t *testing.T) {
	srv := swapFixture(t, 1)
	srv.DiscardCommits = true

	sw := NewSwapper(srv.Client(), nil).Swap(context.Background(), 5001, 700, 301, "")
	assert.Equal(t, SwapCommitted, sw.State)
	assert.Equal(t, outcome.Degraded, sw.Outcome.Status)
	assert.Contains(t, sw.Outcome.String(), "verification failed")
	assert.Equal(t, CompensateNone, sw.Compensation)
}
