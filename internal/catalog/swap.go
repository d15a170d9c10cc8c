package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

// SwapState tracks an order edit session that replaces one unit of a
// placeholder line with a clone variant.
//
//	Opened -> LineAdded -> LineRemoved -> Committed
//	   any failure ------------------------> Aborted
type SwapState string

const (
	SwapPending     SwapState = "pending"
	SwapOpened      SwapState = "opened"
	SwapLineAdded   SwapState = "line_added"
	SwapLineRemoved SwapState = "line_removed"
	SwapCommitted   SwapState = "committed"
	SwapAborted     SwapState = "aborted"
)

// Compensation is an undo step left to the caller after an aborted swap.
type Compensation string

const (
	CompensateNone Compensation = "none"
	// An uncommitted session; the platform discards it, nothing to call.
	CompensateAbandonSession Compensation = "abandon_session"
	// The order is unchanged but the clone product exists and must be retired.
	CompensateArchiveClone Compensation = "archive_clone"
)

// compensations is keyed by the last state reached before the failure.
var compensations = map[SwapState]struct{ session, clone Compensation }{
	SwapPending:     {CompensateNone, CompensateArchiveClone},
	SwapOpened:      {CompensateAbandonSession, CompensateArchiveClone},
	SwapLineAdded:   {CompensateAbandonSession, CompensateArchiveClone},
	SwapLineRemoved: {CompensateAbandonSession, CompensateArchiveClone},
}

type Swap struct {
	State        SwapState
	Trail        []SwapState
	FailedAt     SwapState
	Session      Compensation
	Compensation Compensation
	Outcome      outcome.Outcome
}

func (s *Swap) advance(to SwapState) {
	s.State = to
	s.Trail = append(s.Trail, to)
}

func (s *Swap) abort(reason string) {
	s.FailedAt = s.State
	c := compensations[s.State]
	s.Session = c.session
	s.Compensation = c.clone
	s.advance(SwapAborted)
	s.Outcome.Fail(reason)
}

type EditAPI interface {
	GetOrder(ctx context.Context, orderID int64) (*shopify.Order, error)
	BeginOrderEdit(ctx context.Context, orderID int64) (*shopify.CalculatedOrder, error)
	AddVariantToEdit(ctx context.Context, calculatedOrderID string, variantID int64, quantity int) (string, error)
	SetEditQuantity(ctx context.Context, calculatedOrderID, calculatedLineItemID string, quantity int) error
	CommitOrderEdit(ctx context.Context, calculatedOrderID, staffNote string) error
}

type Swapper struct {
	api EditAPI
	log *zap.Logger
}

func NewSwapper(api EditAPI, log *zap.Logger) *Swapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Swapper{api: api, log: log}
}

// Swap replaces one unit of lineItemID with one unit of variantID in a
// single edit session, then re-reads the order to confirm the result.
// A commit the platform accepted but the order does not reflect is
// reported Degraded; nothing is compensated in that case.
func (s *Swapper) Swap(ctx context.Context, orderID, lineItemID, variantID int64, staffNote string) *Swap {
	sw := &Swap{State: SwapPending, Compensation: CompensateNone, Session: CompensateNone}
	log := s.log.With(zap.Int64("order_id", orderID), zap.Int64("line_item_id", lineItemID), zap.Int64("variant_id", variantID))

	calc, err := s.api.BeginOrderEdit(ctx, orderID)
	if err != nil {
		log.Warn("order edit begin failed", zap.Error(err))
		sw.abort(fmt.Sprintf("edit session not opened: %v", err))
		return sw
	}
	sw.advance(SwapOpened)

	line, ok := calc.LineItem(lineItemID)
	if !ok {
		sw.abort(fmt.Sprintf("line item %d not editable", lineItemID))
		return sw
	}
	if line.Quantity < 1 {
		sw.abort(fmt.Sprintf("line item %d has no remaining quantity", lineItemID))
		return sw
	}

	if _, err := s.api.AddVariantToEdit(ctx, calc.ID, variantID, 1); err != nil {
		log.Warn("order edit add failed", zap.Error(err))
		sw.abort(fmt.Sprintf("clone variant not added: %v", err))
		return sw
	}
	sw.advance(SwapLineAdded)

	remaining := line.Quantity - 1
	if err := s.api.SetEditQuantity(ctx, calc.ID, line.ID, remaining); err != nil {
		log.Warn("order edit remove failed", zap.Error(err))
		sw.abort(fmt.Sprintf("placeholder not removed: %v", err))
		return sw
	}
	sw.advance(SwapLineRemoved)

	if err := s.api.CommitOrderEdit(ctx, calc.ID, staffNote); err != nil {
		log.Warn("order edit commit failed", zap.Error(err))
		sw.abort(fmt.Sprintf("edit not committed: %v", err))
		return sw
	}
	sw.advance(SwapCommitted)
	sw.Outcome.Status = outcome.Ok

	if reason := s.verify(ctx, orderID, lineItemID, variantID, remaining); reason != "" {
		log.Warn("order edit verification failed", zap.String("reason", reason))
		sw.Outcome.Degrade("verification failed: " + reason)
	}
	return sw
}

func (s *Swapper) verify(ctx context.Context, orderID, lineItemID, variantID int64, wantRemaining int) string {
	o, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Sprintf("order not re-read: %v", err)
	}

	var variantSeen, placeholderOK bool
	for _, li := range o.LineItems {
		if li.VariantID == variantID && li.Remaining() > 0 {
			variantSeen = true
		}
		if li.ID == lineItemID && li.Remaining() == wantRemaining {
			placeholderOK = true
		}
	}
	switch {
	case !variantSeen:
		return "clone variant missing from order"
	case !placeholderOK:
		return "placeholder quantity unchanged"
	}
	return ""
}
