package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/catalog"
	"github.com/linearclockworks/shopify-serial--webhook/internal/orders"
	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
	"github.com/linearclockworks/shopify-serial--webhook/internal/tracking"
)

// Unit is one serial-bearing unit of a line item.
type Unit struct {
	LineItemID int64          `json:"line_item_id"`
	SKU        string         `json:"sku"`
	Family     string         `json:"family"`
	Serial     string         `json:"serial,omitempty"`
	CloneID    int64          `json:"clone_product_id,omitempty"`
	Status     outcome.Status `json:"status"`
	Issues     []string       `json:"issues,omitempty"`
	Reasons    []string       `json:"-"` // full error text, for logs and alerts
}

// Skip records an eligible line item that received no serial by policy.
type Skip struct {
	LineItemID int64  `json:"line_item_id"`
	SKU        string `json:"sku"`
	Reason     string `json:"reason"`
	Issue      string `json:"issue"`
}

type Result struct {
	OrderID     int64    `json:"order_id"`
	OrderNumber string   `json:"order"`
	Serials     []string `json:"serials"`
	Units       []Unit   `json:"units"`
	Skipped     []Skip   `json:"skipped,omitempty"`
	NoteUpdated bool     `json:"note_updated"`
}

// Status summarises the units: "success" when every unit is Ok, "degraded"
// when all serials were issued but some bookkeeping failed, "partial" when
// some units got no serial, "failed" when none did. An order without
// eligible units is a success.
func (r *Result) Status() string {
	var issued, failed, degraded int
	for _, u := range r.Units {
		switch u.Status {
		case outcome.Failed:
			failed++
		case outcome.Degraded:
			degraded++
			issued++
		default:
			issued++
		}
	}
	switch {
	case failed > 0 && issued == 0:
		return "failed"
	case failed > 0:
		return "partial"
	case degraded > 0 || (issued > 0 && !r.NoteUpdated):
		return "degraded"
	}
	return "success"
}

// ProcessOrder issues serials for every eligible unit in payload order.
// Units are independent: a failure stops only that unit, and serials already
// issued are kept. Every serial issued is appended to the order note in one
// write at the end.
func (p *Processor) ProcessOrder(ctx context.Context, o *shopify.Order) *Result {
	res := &Result{OrderID: o.ID, OrderNumber: orders.OrderNumber(o), Serials: []string{}, Units: []Unit{}}
	log := p.logger(ctx).With(zap.Int64("order_id", o.ID), zap.String("order", res.OrderNumber))
	date := orders.OrderDate(o, p.Now())

	var noteLines []string
	for _, item := range o.LineItems {
		f, ok := p.Families.Eligible(item)
		if !ok {
			continue
		}
		n := f.Units(item.Quantity)
		if n == 0 {
			log.Warn("line item skipped by quantity policy",
				zap.Int64("line_item_id", item.ID), zap.String("sku", item.SKU), zap.Int("quantity", item.Quantity))
			res.Skipped = append(res.Skipped, Skip{LineItemID: item.ID, SKU: item.SKU, Reason: fmt.Sprintf("quantity %d not allowed by %s policy", item.Quantity, f.QuantityPolicy), Issue: IssueQuantityNotSerialised})
			continue
		}

		for i := 0; i < n; i++ {
			u := p.processUnit(ctx, o, item, f, res.OrderNumber, date)
			res.Units = append(res.Units, u)
			if u.Serial != "" {
				res.Serials = append(res.Serials, u.Serial)
				noteLines = append(noteLines, orders.SerialNoteLine(f.NoteLabel, u.Serial))
			}
		}
	}

	if len(noteLines) > 0 {
		if err := p.Mutator.AppendNote(ctx, o.ID, noteLines); err != nil {
			log.Error("order note not updated", zap.Error(err))
			for i := range res.Units {
				if res.Units[i].Serial != "" {
					res.Units[i].degrade(IssueNoteNotUpdated, "order note not updated: "+err.Error())
				}
			}
		} else {
			res.NoteUpdated = true
		}
	}

	log.Info("order processed", zap.Strings("serials", res.Serials), zap.String("status", res.Status()), zap.Int("skipped", len(res.Skipped)))
	p.alertUnits(ctx, res)
	return res
}

func (u *Unit) degrade(issue, reason string) {
	u.Status = outcome.Worst(u.Status, outcome.Degraded)
	u.Issues = addIssue(u.Issues, issue)
	u.Reasons = append(u.Reasons, reason)
}

func (p *Processor) processUnit(ctx context.Context, o *shopify.Order, item shopify.LineItem, f *serials.Family, orderNumber, date string) Unit {
	u := Unit{LineItemID: item.ID, SKU: item.SKU, Family: f.Name, Status: outcome.Ok}
	log := p.logger(ctx).With(zap.Int64("order_id", o.ID), zap.Int64("line_item_id", item.ID), zap.String("family", f.Name))

	a, err := p.Allocator.Allocate(ctx, f)
	if err != nil {
		log.Error("serial allocation failed", zap.Error(err))
		u.Status = outcome.Failed
		u.Issues = addIssue(u.Issues, IssueSerialNotIssued)
		u.Reasons = append(u.Reasons, err.Error())
		return u
	}
	u.Serial = a.Serial
	if a.Status == outcome.Degraded {
		u.degrade(IssueCounterNotAdvanced, a.Reason)
	}
	log = log.With(zap.String("serial", a.Serial))
	log.Info("serial issued")

	switch {
	case f.CloneOnOrder:
		p.cloneIntoOrder(ctx, o, item, a.Serial, orderNumber, &u, log)
	case f.AttachLineItem:
		if err := p.Mutator.AttachLineItemSerial(ctx, o.ID, item.ID, a.Serial); err != nil {
			log.Warn("line item serial not attached", zap.Error(err))
			u.degrade(IssueLineItemNotTagged, "line item metafield not set: "+err.Error())
		}
	}

	row := tracking.Row{
		Serial:      a.Serial,
		Family:      f.Name,
		ProductName: item.Title,
		SKU:         item.SKU,
		OrderNumber: orderNumber,
		Customer:    o.CustomerName(),
		Date:        date,
	}
	if err := p.Tracking.AppendRow(ctx, f, row); err != nil {
		u.degrade(IssueSheetNotUpdated, "tracking sheet not updated: "+err.Error())
	}
	if err := p.archive(ctx, row); err != nil {
		log.Warn("tracking archive not written", zap.Error(err))
		u.degrade(IssueArchiveNotWritten, "tracking archive not written: "+err.Error())
	}
	return u
}

// cloneIntoOrder replaces one unit of the placeholder line with a clone
// carrying the serial. A swap that did not commit archives the clone.
func (p *Processor) cloneIntoOrder(ctx context.Context, o *shopify.Order, item shopify.LineItem, serial, orderNumber string, u *Unit, log *zap.Logger) {
	if p.Products == nil || p.Cloner == nil || p.Swapper == nil {
		u.degrade(IssueCloningNotConfigured, "cloning not configured")
		return
	}
	master, err := p.Products.GetProduct(ctx, item.ProductID)
	if err != nil {
		log.Warn("master product not loaded", zap.Int64("product_id", item.ProductID), zap.Error(err))
		u.degrade(IssueCloneNotCreated, "clone not created: "+err.Error())
		return
	}

	cl, err := p.Cloner.CloneForOrder(ctx, master, orderNumber, serial)
	if err != nil {
		log.Warn("clone not created", zap.Error(err))
		u.degrade(IssueCloneNotCreated, "clone not created: "+err.Error())
		return
	}
	u.CloneID = cl.Product.ID
	for _, r := range cl.Outcome.Reasons {
		u.degrade(IssueCloneIncomplete, r)
	}

	sw := p.Swapper.Swap(ctx, o.ID, item.ID, cl.VariantID, "Serial "+serial)
	editIssue := IssueOrderEditUnverified
	if sw.State == catalog.SwapAborted {
		editIssue = IssueOrderEditFailed
	}
	for _, r := range sw.Outcome.Reasons {
		u.degrade(editIssue, r)
	}
	if sw.State == catalog.SwapAborted && sw.Compensation == catalog.CompensateArchiveClone {
		if err := p.Cloner.Archive(ctx, cl.Product.ID); err != nil {
			log.Error("orphan clone not archived", zap.Int64("clone_id", cl.Product.ID), zap.Error(err))
			u.degrade(IssueCloneNotArchived, "orphan clone not archived: "+err.Error())
		}
	}
}

// alertUnits reports every unit that needs a person: non-Ok units and line
// items the quantity policy left without a serial.
func (p *Processor) alertUnits(ctx context.Context, res *Result) {
	var lines []string
	for _, u := range res.Units {
		if u.Status == outcome.Ok {
			continue
		}
		label := u.Serial
		if label == "" {
			label = "(no serial)"
		}
		for _, r := range u.Reasons {
			lines = append(lines, fmt.Sprintf("%s %s line %d: %s", label, u.SKU, u.LineItemID, r))
		}
	}
	for _, s := range res.Skipped {
		lines = append(lines, fmt.Sprintf("(no serial) %s line %d: %s, assign by hand", s.SKU, s.LineItemID, s.Reason))
	}
	if len(lines) == 0 {
		return
	}
	status := res.Status()
	if status == "success" {
		status = "skipped"
	}
	p.alert(ctx, fmt.Sprintf("Order %s serials %s", res.OrderNumber, status), lines)
}
