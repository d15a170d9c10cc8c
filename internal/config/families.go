package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
)

//go:embed families.yaml
var defaultFamilies []byte

// LoadFamilies reads FAMILIES_FILE, or the built-in table, then applies
// per-family overrides: SKU_PREFIXES_<FAMILY>, QUANTITY_POLICY_<FAMILY> and
// CLONE_ON_ORDER_<FAMILY>.
func LoadFamilies() (serials.Families, error) {
	data := defaultFamilies
	if path := env("FAMILIES_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read FAMILIES_FILE: %w", err)
		}
		data = b
	}

	fs, err := serials.ParseFamilies(data)
	if err != nil {
		return nil, err
	}

	for _, f := range fs {
		k := familyKey(f.Name)
		if p := envList("SKU_PREFIXES_" + k); len(p) > 0 {
			f.Prefixes = p
		}
		if q := env("QUANTITY_POLICY_" + k); q != "" {
			switch serials.QuantityPolicy(q) {
			case serials.RejectMultiple, serials.PerUnit:
				f.QuantityPolicy = serials.QuantityPolicy(q)
			default:
				return nil, fmt.Errorf("QUANTITY_POLICY_%s: unknown policy %q", k, q)
			}
		}
		if v := env("CLONE_ON_ORDER_" + k); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("CLONE_ON_ORDER_%s: %w", k, err)
			}
			f.CloneOnOrder = b
		}
	}
	return fs, nil
}
