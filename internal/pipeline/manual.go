package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/orders"
	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
	"github.com/linearclockworks/shopify-serial--webhook/internal/tracking"
)

// AvailableOrderNumber fills the order column for stock not tied to an order.
const AvailableOrderNumber = "Available"

var ErrUnknownFamily = errors.New("unknown product family")

type CreateResult struct {
	Serial       string
	ProductID    int64
	ProductTitle string
	ProductURL   string
	Outcome      outcome.Outcome
	Warnings     []string // issue codes for the degraded parts of Outcome
}

func (r *CreateResult) degrade(issue, reason string) {
	r.Outcome.Degrade(reason)
	r.Warnings = addIssue(r.Warnings, issue)
}

// CreateAvailable finds the master for style, issues a serial from family
// and creates a draft "available" clone. Errors wrap catalog.ErrMasterNotFound
// when no master matches; a serial is consumed only once a master is found.
func (p *Processor) CreateAvailable(ctx context.Context, familyName, style string) (*CreateResult, error) {
	if p.Resolver == nil || p.Cloner == nil {
		return nil, errors.New("cloning not configured")
	}
	f, ok := p.Family(familyName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, familyName)
	}
	log := p.logger(ctx).With(zap.String("style", style), zap.String("family", f.Name))

	master, err := p.Resolver.FindMaster(ctx, style)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.Int64("master_id", master.ID))

	a, err := p.Allocator.Allocate(ctx, f)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("serial", a.Serial))

	res := &CreateResult{Serial: a.Serial, Outcome: outcome.Outcome{Status: outcome.Ok}}
	if a.Status == outcome.Degraded {
		res.degrade(IssueCounterNotAdvanced, a.Reason)
	}

	cl, err := p.Cloner.CloneAvailable(ctx, master, a.Serial)
	if err != nil {
		log.Error("available clone not created", zap.Error(err))
		p.alert(ctx, "Serial "+a.Serial+" issued without product", []string{err.Error()})
		return res, fmt.Errorf("serial %s issued but product not created: %w", a.Serial, err)
	}
	res.ProductID = cl.Product.ID
	res.ProductTitle = cl.Product.Title
	res.ProductURL = p.AdminURL(fmt.Sprintf("products/%d", cl.Product.ID))
	res.Outcome.Merge(cl.Outcome)
	if !cl.Outcome.OK() {
		res.Warnings = addIssue(res.Warnings, IssueCloneIncomplete)
	}

	row := tracking.Row{
		Serial:      a.Serial,
		Family:      f.Name,
		ProductName: master.Title,
		SKU:         master.FirstVariant().SKU,
		OrderNumber: AvailableOrderNumber,
		Date:        p.Now().Format(orders.DateLayout),
	}
	if err := p.Tracking.AppendRow(ctx, f, row); err != nil {
		res.degrade(IssueSheetNotUpdated, "tracking sheet not updated: "+err.Error())
	}
	if err := p.archive(ctx, row); err != nil {
		res.degrade(IssueArchiveNotWritten, "tracking archive not written: "+err.Error())
	}

	log.Info("available product created", zap.Int64("product_id", res.ProductID), zap.Stringer("outcome", res.Outcome))
	if !res.Outcome.OK() {
		p.alert(ctx, "Available product "+a.Serial+" "+string(res.Outcome.Status), res.Outcome.Reasons)
	}
	return res, nil
}

// AssignTestSerial issues one serial from family and notes it on the order,
// without any sheet row. Used to check the wiring against a real order.
func (p *Processor) AssignTestSerial(ctx context.Context, familyName string, orderID int64) (string, error) {
	f, ok := p.Family(familyName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFamily, familyName)
	}
	a, err := p.Allocator.Allocate(ctx, f)
	if err != nil {
		return "", err
	}
	if err := p.Mutator.AppendNote(ctx, orderID, []string{orders.SerialNoteLine(f.NoteLabel, a.Serial)}); err != nil {
		return a.Serial, fmt.Errorf("serial %s issued but not noted: %w", a.Serial, err)
	}
	return a.Serial, nil
}

type Peek struct {
	Family string `json:"family"`
	Next   string `json:"next_serial,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PeekSerials reports the next serial of every family without issuing any.
func (p *Processor) PeekSerials(ctx context.Context) []Peek {
	out := make([]Peek, 0, len(p.Families))
	for _, f := range p.Families {
		pk := Peek{Family: f.Name}
		next, err := p.Allocator.Peek(ctx, f)
		if err != nil {
			pk.Error = err.Error()
		} else {
			pk.Next = next
		}
		out = append(out, pk)
	}
	return out
}

// ResolveOrder finds an order from a number typed in by staff. Returns nil,
// nil when none matches.
func (p *Processor) ResolveOrder(ctx context.Context, input string) (*shopify.Order, error) {
	if p.Orders == nil {
		return nil, errors.New("order lookup not configured")
	}
	return orders.Resolve(ctx, p.Orders, input)
}
