package tracking

import (
	"context"
	"errors"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/linearclockworks/shopify-serial--webhook/internal/serials"
)

func clocksFamily() *serials.Family {
	return &serials.Family{
		Name:         "clocks",
		SerialPrefix: "LCK-",
		Sheet:        serials.SheetConfig{Tab: "Clocks", Layout: "clocks", Insert: serials.InsertAfterHeader},
	}
}

func cleartimeFamily() *serials.Family {
	return &serials.Family{
		Name:  "cleartime",
		Sheet: serials.SheetConfig{Tab: "CTClocks", Layout: "cleartime", Insert: serials.InsertAppend},
	}
}

func TestSplitProductName(t *testing.T) {
	n, d := SplitProductName("Claret: Walnut: Brass")
	assert.Equal(t, "Claret", n)
	assert.Equal(t, "Walnut: Brass", d)

	n, d = SplitProductName(" Wade ")
	assert.Equal(t, "Wade", n)
	assert.Equal(t, "", d)
}

func TestClocksLayout(t *testing.T) {
	cells, err := Cells(clocksFamily(), Row{
		Serial:      "LCK-1010",
		ProductName: "Wade: Walnut",
		OrderNumber: "#1001",
		Customer:    "Ada Lovelace",
		Date:        "2024-03-05 14:02:11",
	})
	require.NoError(t, err)
	require.Len(t, cells, 23)
	assert.Equal(t, "1010", cells[0])
	assert.Equal(t, "Wade", cells[1])
	assert.Equal(t, "Walnut", cells[2])
	assert.Equal(t, "", cells[3])
	assert.Equal(t, "#1001", cells[4])
	assert.Equal(t, "2024-03-05 14:02:11", cells[9])
	for i := 10; i < 23; i++ {
		assert.Equal(t, "", cells[i])
	}
}

func TestCleartimeLayout(t *testing.T) {
	cells, err := Cells(cleartimeFamily(), Row{Serial: "42", SKU: "CT4024M", OrderNumber: "#1002", Customer: "Grace Hopper"})
	require.NoError(t, err)
	assert.Equal(t, []any{"42", "CT4024M", "", "#1002", "Grace Hopper", "", "", ""}, cells)

	_, err = Cells(&serials.Family{Name: "x", Sheet: serials.SheetConfig{Layout: "nope"}}, Row{})
	require.ErrorContains(t, err, "unknown sheet layout")
}

// The serial column holds the bare counter value of the issued serial.
func TestSerialColumnRoundTrip(t *testing.T) {
	for _, f := range []*serials.Family{clocksFamily(), cleartimeFamily()} {
		for _, n := range []int64{1, 42, 1010, 123456} {
			cells, err := Cells(f, Row{Serial: f.FormatSerial(n)})
			require.NoError(t, err)
			assert.Equal(t, f.StripSerial(f.FormatSerial(n)), cells[0])
			assert.Equal(t, strconv.FormatInt(n, 10), cells[0])
		}
	}
}

type fakeSheets struct {
	inserted [][]any
	appended [][]any
	ids      []string
	tabs     []string
	err      error
	block    bool
}

func (f *fakeSheets) InsertRow(ctx context.Context, id, tab string, cells []any) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.ids, f.tabs = append(f.ids, id), append(f.tabs, tab)
	f.inserted = append(f.inserted, cells)
	return f.err
}

func (f *fakeSheets) AppendRow(_ context.Context, id, tab string, cells []any) error {
	f.ids, f.tabs = append(f.ids, id), append(f.tabs, tab)
	f.appended = append(f.appended, cells)
	return f.err
}

func TestWriterRoutesByFamily(t *testing.T) {
	fs := &fakeSheets{}
	w := NewWriter(fs, map[string]string{"clocks": "sheet-a", "cleartime": "sheet-b"}, time.Second, nil)

	require.NoError(t, w.AppendRow(context.Background(), clocksFamily(), Row{Serial: "LCK-1010", ProductName: "Wade: Walnut"}))
	require.NoError(t, w.AppendRow(context.Background(), cleartimeFamily(), Row{Serial: "42"}))

	assert.Len(t, fs.inserted, 1)
	assert.Len(t, fs.appended, 1)
	assert.Equal(t, []string{"sheet-a", "sheet-b"}, fs.ids)
	assert.Equal(t, []string{"Clocks", "CTClocks"}, fs.tabs)
}

func TestWriterErrors(t *testing.T) {
	err := NewWriter(nil, map[string]string{"clocks": "sheet-a"}, 0, nil).AppendRow(context.Background(), clocksFamily(), Row{})
	assert.ErrorIs(t, err, ErrNoSheet)

	err = NewWriter(&fakeSheets{}, nil, 0, nil).AppendRow(context.Background(), clocksFamily(), Row{})
	assert.ErrorIs(t, err, ErrNoSheet)

	fs := &fakeSheets{err: errors.New("quota exceeded")}
	err = NewWriter(fs, map[string]string{"clocks": "s"}, 0, nil).AppendRow(context.Background(), clocksFamily(), Row{Serial: "LCK-1"})
	require.ErrorContains(t, err, "quota exceeded")

	slow := &fakeSheets{block: true}
	err = NewWriter(slow, map[string]string{"clocks": "s"}, 20*time.Millisecond, nil).AppendRow(context.Background(), clocksFamily(), Row{Serial: "LCK-1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeS3 struct {
	bucket, key string
	body        []byte
	err         error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveKey(t *testing.T) {
	ts := time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "tracking/dt=2025-06-02/family=clocks/serial-LCK-1010.parquet", ArchiveKey("tracking", "clocks", "LCK-1010", ts))
	assert.Equal(t, "tracking/dt=2025-06-02/family=clocks/serial-LCK-1010.parquet", ArchiveKey(" tracking// ", "clocks", "LCK-1010", ts))
	assert.Equal(t, "dt=2025-06-02/family=cleartime/serial-42.parquet", ArchiveKey("", "cleartime", "42", ts))
}

func TestArchivePutWritesParquet(t *testing.T) {
	f := &fakeS3{}
	a := NewArchive(f, "analytics", "tracking/")
	a.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	require.True(t, a.Enabled())

	row := Row{Serial: "LCK-1010", Family: "clocks", ProductName: "Wade: Walnut", SKU: "LCK-WADE", OrderNumber: "#1001", Customer: "Ada", Date: "2025-06-01 09:59:00"}
	require.NoError(t, a.Put(context.Background(), row))

	assert.Equal(t, "analytics", f.bucket)
	assert.Equal(t, "tracking/dt=2025-06-01/family=clocks/serial-LCK-1010.parquet", f.key)

	pr, err := reader.NewParquetReader(buffer.NewBufferFileFromBytes(f.body), new(ArchiveRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	require.Equal(t, int64(1), pr.GetNumRows())

	got := make([]ArchiveRow, 1)
	require.NoError(t, pr.Read(&got))
	assert.Equal(t, "LCK-1010", got[0].Serial)
	assert.Equal(t, "Wade: Walnut", got[0].ProductName)
	assert.Equal(t, "2025-06-01T10:00:00Z", got[0].RecordedAt)
}

func TestArchiveDisabledAndFailing(t *testing.T) {
	require.NoError(t, NewArchive(nil, "", "").Put(context.Background(), Row{}))
	var nilArchive *Archive
	assert.False(t, nilArchive.Enabled())

	err := NewArchive(&fakeS3{err: errors.New("AccessDenied")}, "b", "").Put(context.Background(), Row{Serial: "1", Family: "cleartime"})
	require.ErrorContains(t, err, "AccessDenied")
}
