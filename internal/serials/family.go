package serials

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

// ProcessedMarker prefixes titles of line items and products that were
// already handled, either by hand or as clones created by this service.
const ProcessedMarker = "--"

type QuantityPolicy string

const (
	// RejectMultiple skips line items whose quantity is not exactly 1.
	RejectMultiple QuantityPolicy = "reject-multiple"
	// PerUnit issues one serial for every unit of a line item.
	PerUnit QuantityPolicy = "per-unit"
)

const (
	InsertAfterHeader = "after-header"
	InsertAppend      = "append"
)

type SheetConfig struct {
	IDEnv  string `yaml:"id_env"`
	Tab    string `yaml:"tab"`
	Layout string `yaml:"layout"`
	Insert string `yaml:"insert"`
}

// Family holds everything that differs between product lines.
type Family struct {
	Name             string         `yaml:"name"`
	Prefixes         []string       `yaml:"prefixes"`
	CounterNamespace string         `yaml:"counter_namespace"`
	CounterKey       string         `yaml:"counter_key"`
	SerialPrefix     string         `yaml:"serial_prefix"`
	QuantityPolicy   QuantityPolicy `yaml:"quantity_policy"`
	NoteLabel        string         `yaml:"note_label"`
	Sheet            SheetConfig    `yaml:"sheet"`
	AttachLineItem   bool           `yaml:"attach_line_item"`
	CloneOnOrder     bool           `yaml:"clone_on_order"`
}

func (f *Family) Counter() Counter {
	return Counter{Namespace: f.CounterNamespace, Key: f.CounterKey}
}

func (f *Family) FormatSerial(n int64) string {
	return f.SerialPrefix + strconv.FormatInt(n, 10)
}

// StripSerial removes the family prefix, leaving the bare counter value.
func (f *Family) StripSerial(serial string) string {
	if f.SerialPrefix == "" {
		return serial
	}
	if len(serial) >= len(f.SerialPrefix) && strings.EqualFold(serial[:len(f.SerialPrefix)], f.SerialPrefix) {
		return serial[len(f.SerialPrefix):]
	}
	return serial
}

func (f *Family) MatchesSKU(sku string) bool {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return false
	}
	for _, p := range f.Prefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(sku, p) {
			return true
		}
	}
	return false
}

// Units is how many serials a line item of the given quantity receives.
func (f *Family) Units(quantity int) int {
	switch f.QuantityPolicy {
	case PerUnit:
		if quantity < 0 {
			return 0
		}
		return quantity
	default:
		if quantity != 1 {
			return 0
		}
		return 1
	}
}

func (f *Family) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("family without name")
	}
	if len(f.Prefixes) == 0 {
		return fmt.Errorf("family %s: no sku prefixes", f.Name)
	}
	if f.CounterNamespace == "" || f.CounterKey == "" {
		return fmt.Errorf("family %s: counter namespace and key are required", f.Name)
	}
	switch f.QuantityPolicy {
	case "":
		f.QuantityPolicy = RejectMultiple
	case RejectMultiple, PerUnit:
	default:
		return fmt.Errorf("family %s: unknown quantity policy %q", f.Name, f.QuantityPolicy)
	}
	if f.NoteLabel == "" {
		f.NoteLabel = "Serial"
	}
	if f.Sheet.Insert == "" {
		f.Sheet.Insert = InsertAfterHeader
	}
	return nil
}

// Families is ordered; the first family whose prefixes match a SKU wins.
type Families []*Family

func ParseFamilies(data []byte) (Families, error) {
	var doc struct {
		Families []*Family `yaml:"families"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse families: %w", err)
	}
	if len(doc.Families) == 0 {
		return nil, errors.New("parse families: no families defined")
	}
	seen := map[string]bool{}
	for _, f := range doc.Families {
		if err := f.validate(); err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate family %s", f.Name)
		}
		seen[f.Name] = true
	}
	return Families(doc.Families), nil
}

func (fs Families) Match(sku string) *Family {
	for _, f := range fs {
		if f.MatchesSKU(sku) {
			return f
		}
	}
	return nil
}

func (fs Families) ByName(name string) *Family {
	for _, f := range fs {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// Eligible reports whether a line item should receive serials and for which
// family: the SKU must match a family prefix and the title must not carry
// the processed marker. Quantity is judged separately by Family.Units.
func (fs Families) Eligible(item shopify.LineItem) (*Family, bool) {
	if strings.TrimSpace(item.SKU) == "" || strings.HasPrefix(item.Title, ProcessedMarker) {
		return nil, false
	}
	f := fs.Match(item.SKU)
	return f, f != nil
}
