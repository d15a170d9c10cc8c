package serials

import (
	"context"
	"fmt"

	"github.com/linearclockworks/shopify-serial--webhook/internal/outcome"
)

// Allocation is one issued serial.
type Allocation struct {
	Family *Family
	Value  int64
	Serial string
	Status outcome.Status
	Reason string
}

type Allocator struct {
	seq Sequencer
}

func NewAllocator(seq Sequencer) *Allocator {
	return &Allocator{seq: seq}
}

// Allocate consumes the next value of the family counter. Any error means no
// serial was issued and wraps ErrAllocationFailed.
func (a *Allocator) Allocate(ctx context.Context, f *Family) (Allocation, error) {
	res, err := a.seq.NextSerial(ctx, f.Counter())
	if err != nil {
		return Allocation{}, fmt.Errorf("%w: %s: %w", ErrAllocationFailed, f.Name, err)
	}

	al := Allocation{
		Family: f,
		Value:  res.Value,
		Serial: f.FormatSerial(res.Value),
		Status: outcome.Ok,
	}
	if res.Degraded != "" {
		al.Status = outcome.Degraded
		al.Reason = res.Degraded
	}
	return al, nil
}

// Peek returns the serial the next Allocate would issue without consuming it.
func (a *Allocator) Peek(ctx context.Context, f *Family) (string, error) {
	v, err := a.seq.Current(ctx, f.Counter())
	if err != nil {
		return "", err
	}
	return f.FormatSerial(v), nil
}
