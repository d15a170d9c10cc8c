package serials

import (
	"context"
	"errors"
)

var (
	ErrCounterMissing   = errors.New("serial counter not found")
	ErrAllocationFailed = errors.New("serial allocation failed")
)

// Counter names one remote integer sequence.
type Counter struct {
	Namespace string
	Key       string
}

func (c Counter) String() string {
	return c.Namespace + "." + c.Key
}

// Reservation is one consumed counter value. Degraded is set when the value
// was issued but the store could not record the advance.
type Reservation struct {
	Value    int64
	Degraded string
}

// Sequencer hands out counter values. Each successful NextSerial consumes
// exactly one value; values are never handed back.
type Sequencer interface {
	NextSerial(ctx context.Context, c Counter) (Reservation, error)
	// Current returns the value the next NextSerial would issue, without
	// consuming it.
	Current(ctx context.Context, c Counter) (int64, error)
}
