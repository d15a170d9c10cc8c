package tracking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAPI is the part of the spreadsheet service the writer needs.
type SheetsAPI interface {
	// InsertRow puts cells in a new row directly below the header row.
	InsertRow(ctx context.Context, spreadsheetID, tab string, cells []any) error
	// AppendRow adds cells after the last row with data.
	AppendRow(ctx context.Context, spreadsheetID, tab string, cells []any) error
}

// GoogleSheets talks to the Sheets v4 API with a service account.
type GoogleSheets struct {
	svc *sheets.Service

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewGoogleSheets builds a client from a service account JSON blob.
func NewGoogleSheets(ctx context.Context, credentialsJSON string, opts ...option.ClientOption) (*GoogleSheets, error) {
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append([]option.ClientOption{
			option.WithCredentialsJSON([]byte(credentialsJSON)),
			option.WithScopes(sheets.SpreadsheetsScope),
		}, opts...)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &GoogleSheets{svc: svc, sheetIDs: map[string]int64{}}, nil
}

// Cells are stored as typed. Customer names and order numbers come from
// checkout and must never be parsed as formulas, numbers or dates.
const valueInputOption = "RAW"

func a1(tab, cell string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(tab, "'", "''"), cell)
}

// sheetID resolves a tab title to its numeric id, cached per process.
func (g *GoogleSheets) sheetID(ctx context.Context, spreadsheetID, tab string) (int64, error) {
	key := spreadsheetID + "/" + tab
	g.mu.Lock()
	id, ok := g.sheetIDs[key]
	g.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := g.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("open spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			g.mu.Lock()
			g.sheetIDs[key] = sh.Properties.SheetId
			g.mu.Unlock()
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("tab %q not found", tab)
}

func (g *GoogleSheets) InsertRow(ctx context.Context, spreadsheetID, tab string, cells []any) error {
	sid, err := g.sheetID(ctx, spreadsheetID, tab)
	if err != nil {
		return err
	}

	_, err = g.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sid,
					Dimension:  "ROWS",
					StartIndex: 1,
					EndIndex:   2,
					// the first tab has id 0, which is otherwise omitted
					ForceSendFields: []string{"SheetId"},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert row: %w", err)
	}

	_, err = g.svc.Spreadsheets.Values.Update(spreadsheetID, a1(tab, "A2"), &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

func (g *GoogleSheets) AppendRow(ctx context.Context, spreadsheetID, tab string, cells []any) error {
	_, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, a1(tab, "A1"), &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}
