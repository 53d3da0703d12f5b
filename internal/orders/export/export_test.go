package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/artemoderno/storefront/report"
)

func strptr(s string) *string { return &s }

func fixtureRecords() []Record {
	created := time.Date(2024, 6, 1, 15, 4, 0, 0, time.UTC)
	return []Record{
		{OrderID: 12, CustomerName: strptr("Jana"), CustomerEmail: strptr("jana@account.cz"), Email: "jana@form.cz", Address: "Brno", ProductName: strptr("Mlha"), Quantity: 2, CreatedAt: created, Status: "new"},
		{OrderID: 3, Email: "guest@form.cz", Address: "Praha", Quantity: 1, CreatedAt: created, Status: "shipped"},
	}
}

func TestRecordRow(t *testing.T) {
	rows := Rows(fixtureRecords())
	assert.Equal(t, []string{"12", "ORD012", "Jana", "jana@account.cz", "Brno", "Mlha", "2", "2024-06-01", "F012", "new"}, rows[0])
	assert.Equal(t, []string{"3", "ORD003", "-", "guest@form.cz", "Praha", "-", "1", "2024-06-01", "F003", "shipped"}, rows[1])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Rows(fixtureRecords())))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "ORD012", records[1][1])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Rows(fixtureRecords())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Číslo objednávky", rows[0][1])
	assert.Equal(t, "F003", rows[2][8])
}

type staticSource struct {
	records []Record
	err     error
}

func (s staticSource) ListForExport(ctx context.Context) ([]Record, error) {
	return s.records, s.err
}

type fakePDF struct{ err error }

func (f fakePDF) RenderHTML(ctx context.Context, html []byte, opts report.Options) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !opts.Landscape {
		return nil, errors.New("expected landscape")
	}
	return append([]byte("%PDF "), html[:10]...), nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExporterWritesAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	exporter := NewExporter(staticSource{records: fixtureRecords()}, fakePDF{}, dir, discard())

	res, err := exporter.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
	assert.Empty(t, res.Failed)
	for _, format := range Formats {
		path, err := exporter.Path(format)
		require.NoError(t, err)
		assert.FileExists(t, path)
	}

	exporter.source = staticSource{records: fixtureRecords()[:1]}
	_, err = exporter.Export(context.Background())
	require.NoError(t, err)

	path, _ := exporter.Path(FormatCSV)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestExporterPDFFailureKeepsOtherFormats(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(staticSource{records: fixtureRecords()}, fakePDF{err: report.ErrUnavailable}, dir, discard())

	res, err := exporter.Export(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Failed, FormatPDF)
	assert.Contains(t, res.Files, FormatCSV)
	assert.Contains(t, res.Files, FormatXLSX)
}

func TestExporterSourceError(t *testing.T) {
	exporter := NewExporter(staticSource{err: errors.New("db down")}, nil, t.TempDir(), discard())
	_, err := exporter.Export(context.Background())
	assert.Error(t, err)
}

func TestPathRejectsUnknownFormat(t *testing.T) {
	exporter := NewExporter(staticSource{}, nil, "exports", discard())
	_, err := exporter.Path("exe")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestHTMLEscapesCells(t *testing.T) {
	html, err := HTML([][]string{{"<script>"}}, time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, string(html), "&lt;script&gt;")
	assert.Contains(t, string(html), "02.01.2024 03:04")
}
