package tracking

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ArchiveRow is the parquet schema of the tracking archive, queried through
// Athena with partitions dt and family.
type ArchiveRow struct {
	Serial      string `parquet:"name=serial, type=BYTE_ARRAY, convertedtype=UTF8"`
	Family      string `parquet:"name=family, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ProductName string `parquet:"name=product_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	SKU         string `parquet:"name=sku, type=BYTE_ARRAY, convertedtype=UTF8"`
	OrderNumber string `parquet:"name=order_number, type=BYTE_ARRAY, convertedtype=UTF8"`
	Customer    string `parquet:"name=customer, type=BYTE_ARRAY, convertedtype=UTF8"`
	OrderDate   string `parquet:"name=order_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecordedAt  string `parquet:"name=recorded_at, type=BYTE_ARRAY, convertedtype=UTF8"` // RFC3339
}

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes one parquet object per issued serial:
//
//	<prefix>dt=YYYY-MM-DD/family=<family>/serial-<serial>.parquet
type Archive struct {
	s3     ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

func NewArchive(p ObjectPutter, bucket, prefix string) *Archive {
	return &Archive{s3: p, bucket: strings.TrimSpace(bucket), prefix: keyPrefix(prefix), now: time.Now}
}

func (a *Archive) Enabled() bool {
	return a != nil && a.s3 != nil && a.bucket != ""
}

func ArchiveKey(prefix, family, serial string, t time.Time) string {
	return fmt.Sprintf("%sdt=%s/family=%s/serial-%s.parquet", keyPrefix(prefix), t.UTC().Format("2006-01-02"), family, serial)
}

func (a *Archive) Put(ctx context.Context, row Row) error {
	if !a.Enabled() {
		return nil
	}
	now := a.now().UTC()
	rec := ArchiveRow{
		Serial:      row.Serial,
		Family:      row.Family,
		ProductName: row.ProductName,
		SKU:         row.SKU,
		OrderNumber: row.OrderNumber,
		Customer:    row.Customer,
		OrderDate:   row.Date,
		RecordedAt:  now.Format(time.RFC3339),
	}
	data, err := encodeParquet(rec)
	if err != nil {
		return err
	}

	_, err = a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ArchiveKey(a.prefix, row.Family, row.Serial, now)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("s3 putobject failed: %w", err)
	}
	return nil
}

// encodeParquet renders a single-row, snappy-compressed file in memory.
func encodeParquet(row ArchiveRow) ([]byte, error) {
	buf := buffer.NewBufferFileCapacity(4 << 10)
	pw, err := writer.NewParquetWriter(buf, new(ArchiveRow), 1)
	if err != nil {
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	if err := pw.Write(row); err != nil {
		return nil, fmt.Errorf("parquet row %s: %w", row.Serial, err)
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("parquet footer: %w", err)
	}
	return buf.Bytes(), nil
}

// keyPrefix makes a non-empty prefix end in exactly one slash.
func keyPrefix(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}
