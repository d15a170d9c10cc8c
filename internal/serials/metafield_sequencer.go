package serials

import (
	"context"
	"fmt"
	"strconv"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

type MetafieldStore interface {
	FindShopMetafield(ctx context.Context, namespace, key string) (*shopify.Metafield, error)
	CreateMetafield(ctx context.Context, mf shopify.Metafield) (*shopify.Metafield, error)
	UpdateMetafieldValue(ctx context.Context, id int64, value, typ string) error
}

const counterMetafieldType = "number_integer"

// MetafieldSequencer keeps counters in shop metafields. Reading and writing
// back are two calls, so two concurrent allocations can read the same value.
// Use DynamoSequencer wherever webhooks may overlap.
type MetafieldSequencer struct {
	store MetafieldStore
	seed  *int64
}

func NewMetafieldSequencer(store MetafieldStore, seed *int64) *MetafieldSequencer {
	return &MetafieldSequencer{store: store, seed: seed}
}

func (s *MetafieldSequencer) NextSerial(ctx context.Context, c Counter) (Reservation, error) {
	mf, err := s.store.FindShopMetafield(ctx, c.Namespace, c.Key)
	if err != nil {
		return Reservation{}, fmt.Errorf("read %s: %w", c, err)
	}

	if mf == nil {
		if s.seed == nil {
			return Reservation{}, fmt.Errorf("%s: %w", c, ErrCounterMissing)
		}
		_, err := s.store.CreateMetafield(ctx, shopify.Metafield{
			Namespace: c.Namespace,
			Key:       c.Key,
			Type:      counterMetafieldType,
			Value:     shopify.MetafieldValue(strconv.FormatInt(*s.seed+1, 10)),
		})
		if err != nil {
			return Reservation{}, fmt.Errorf("seed %s: %w", c, err)
		}
		return Reservation{Value: *s.seed}, nil
	}

	v, err := mf.Value.Int64()
	if err != nil {
		return Reservation{}, fmt.Errorf("%s holds %q: %w", c, string(mf.Value), err)
	}

	typ := mf.Type
	if typ == "" {
		typ = counterMetafieldType
	}
	// The value is already issued; a failed advance only degrades the result.
	if err := s.store.UpdateMetafieldValue(ctx, mf.ID, strconv.FormatInt(v+1, 10), typ); err != nil {
		return Reservation{Value: v, Degraded: fmt.Sprintf("counter %s not advanced: %v", c, err)}, nil
	}
	return Reservation{Value: v}, nil
}

func (s *MetafieldSequencer) Current(ctx context.Context, c Counter) (int64, error) {
	mf, err := s.store.FindShopMetafield(ctx, c.Namespace, c.Key)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", c, err)
	}
	if mf == nil {
		if s.seed != nil {
			return *s.seed, nil
		}
		return 0, fmt.Errorf("%s: %w", c, ErrCounterMissing)
	}
	return mf.Value.Int64()
}
