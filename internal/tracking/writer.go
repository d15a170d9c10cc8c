package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
)

var ErrNoSheet = errors.New("no spreadsheet configured")

// Writer logs issued serials to each family's spreadsheet tab. Callers treat
// every error as bookkeeping loss, never as a failed serial.
type Writer struct {
	api      SheetsAPI
	sheetIDs map[string]string
	timeout  time.Duration
	log      *zap.Logger
}

// NewWriter maps family names to spreadsheet ids. api may be nil when no
// credentials are configured; every write then reports ErrNoSheet.
func NewWriter(api SheetsAPI, sheetIDs map[string]string, timeout time.Duration, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Writer{api: api, sheetIDs: sheetIDs, timeout: timeout, log: log}
}

func (w *Writer) AppendRow(ctx context.Context, f *serials.Family, row Row) error {
	id := w.sheetIDs[f.Name]
	if w.api == nil || id == "" {
		return fmt.Errorf("family %s: %w", f.Name, ErrNoSheet)
	}
	cells, err := Cells(f, row)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if f.Sheet.Insert == serials.InsertAppend {
		err = w.api.AppendRow(ctx, id, f.Sheet.Tab, cells)
	} else {
		err = w.api.InsertRow(ctx, id, f.Sheet.Tab, cells)
	}
	if err != nil {
		w.log.Warn("tracking row not written", zap.String("family", f.Name), zap.String("serial", row.Serial), zap.Error(err))
		return fmt.Errorf("tracking row %s: %w", row.Serial, err)
	}
	w.log.Info("tracking row written", zap.String("family", f.Name), zap.String("tab", f.Sheet.Tab), zap.String("serial", row.Serial))
	return nil
}
