package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

var ErrMasterNotFound = errors.New("master product not found")

type ProductLister interface {
	ListProducts(ctx context.Context, sinceID int64, limit int) ([]shopify.Product, error)
}

// Resolver finds master products. A master is named "<Style>: <detail>";
// clones of it carry the processed marker in front of the same title.
type Resolver struct {
	api      ProductLister
	pageSize int
	maxPages int
}

func NewResolver(api ProductLister, pageSize, maxPages int) *Resolver {
	if pageSize <= 0 {
		pageSize = 250
	}
	if maxPages <= 0 {
		maxPages = 20
	}
	return &Resolver{api: api, pageSize: pageSize, maxPages: maxPages}
}

// NormalizeStyle lowercases and trims a style name and makes sure it ends
// with the ':' separator, so "Claret" searches for "claret:".
func NormalizeStyle(style string) string {
	s := strings.ToLower(strings.TrimSpace(style))
	if s == "" {
		return ""
	}
	if !strings.HasSuffix(s, ":") {
		s += ":"
	}
	return s
}

func IsMasterOf(p shopify.Product, normalizedStyle string) bool {
	return strings.HasPrefix(strings.ToLower(p.Title), normalizedStyle) &&
		!strings.HasPrefix(p.Title, serials.ProcessedMarker)
}

// FindMaster walks the catalog in ascending id order, at most maxPages
// pages, and returns the first match. With several candidates the oldest
// product wins.
func (r *Resolver) FindMaster(ctx context.Context, style string) (*shopify.Product, error) {
	want := NormalizeStyle(style)
	if want == "" {
		return nil, fmt.Errorf("empty style: %w", ErrMasterNotFound)
	}

	var sinceID int64
	for page := 0; page < r.maxPages; page++ {
		products, err := r.api.ListProducts(ctx, sinceID, r.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list products page %d: %w", page+1, err)
		}
		for i := range products {
			if IsMasterOf(products[i], want) {
				return &products[i], nil
			}
		}
		if len(products) < r.pageSize {
			break
		}
		sinceID = products[len(products)-1].ID
	}
	return nil, fmt.Errorf("style %q: %w", style, ErrMasterNotFound)
}
