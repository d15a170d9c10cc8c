// Package pipeline runs the shared serial workflow: eligibility, allocation,
// order patching, cloning and tracking, for every entry point.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/catalog"
	"github.com/linearclockworks/shopify-serial--webhook/internal/logging"
	"github.com/linearclockworks/shopify-serial--webhook/internal/orders"
	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
	"github.com/linearclockworks/shopify-serial--webhook/internal/tracking"
)

type ProductGetter interface {
	GetProduct(ctx context.Context, productID int64) (*shopify.Product, error)
}

type RowWriter interface {
	AppendRow(ctx context.Context, f *serials.Family, row tracking.Row) error
}

type RowArchiver interface {
	Put(ctx context.Context, row tracking.Row) error
}

type Alerter interface {
	Notify(ctx context.Context, subject string, lines []string)
}

// Deps wires a Processor. Archive and Alerts are optional.
type Deps struct {
	Families  serials.Families
	Allocator *serials.Allocator
	Mutator   *orders.Mutator
	Orders    orders.OrderFinder
	Products  ProductGetter
	Resolver  *catalog.Resolver
	Cloner    *catalog.Cloner
	Swapper   *catalog.Swapper
	Tracking  RowWriter
	Archive   RowArchiver
	Alerts    Alerter
	// AdminURL links to a path in the shop admin.
	AdminURL func(path string) string
	Log      *zap.Logger
	Now      func() time.Time
}

type Processor struct {
	Deps
}

func New(d Deps) (*Processor, error) {
	switch {
	case len(d.Families) == 0:
		return nil, errors.New("pipeline: no product families")
	case d.Allocator == nil:
		return nil, errors.New("pipeline: no allocator")
	case d.Mutator == nil:
		return nil, errors.New("pipeline: no order mutator")
	case d.Tracking == nil:
		return nil, errors.New("pipeline: no tracking writer")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.AdminURL == nil {
		d.AdminURL = func(path string) string { return path }
	}
	return &Processor{Deps: d}, nil
}

// logger prefers the request logger carried by ctx.
func (p *Processor) logger(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, p.Log)
}

func (p *Processor) alert(ctx context.Context, subject string, lines []string) {
	if p.Alerts != nil {
		p.Alerts.Notify(ctx, subject, lines)
	}
}

func (p *Processor) archive(ctx context.Context, row tracking.Row) error {
	if p.Archive == nil {
		return nil
	}
	return p.Archive.Put(ctx, row)
}

// Family looks a family up by name.
func (p *Processor) Family(name string) (*serials.Family, bool) {
	f := p.Families.ByName(name)
	return f, f != nil
}
