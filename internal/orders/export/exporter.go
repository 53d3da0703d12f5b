package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/artemoderno/storefront/report"
)

// ErrUnknownFormat is returned for formats other than csv, xlsx and pdf.
var ErrUnknownFormat = errors.New("export: unknown format")

// Source lists every order for the export, newest first.
type Source interface {
	ListForExport(ctx context.Context) ([]Record, error)
}

// PDFClient converts HTML into PDF bytes.
type PDFClient interface {
	RenderHTML(ctx context.Context, html []byte, opts report.Options) ([]byte, error)
}

// Result summarises one export run.
type Result struct {
	Records int
	Files   map[string]string
	// Failed maps a format to the reason it was not written.
	Failed map[string]string
}

// Exporter writes the export files into a directory, overwriting previous runs.
// Concurrent calls share a single run.
type Exporter struct {
	source Source
	pdf    PDFClient
	dir    string
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewExporter constructs an Exporter. pdf may be nil to skip the PDF file.
func NewExporter(source Source, pdf PDFClient, dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{source: source, pdf: pdf, dir: dir, logger: logger, now: time.Now}
}

// Path returns the file path of format inside the export directory.
func (e *Exporter) Path(format string) (string, error) {
	switch format {
	case FormatCSV, FormatXLSX, FormatPDF:
		return filepath.Join(e.dir, BaseName+"."+format), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Export regenerates every export file. CSV and XLSX failures abort the run;
// a PDF failure is reported in Result.Failed only.
func (e *Exporter) Export(ctx context.Context) (Result, error) {
	v, err, _ := e.group.Do("export", func() (interface{}, error) {
		return e.run(ctx)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (e *Exporter) run(ctx context.Context) (Result, error) {
	records, err := e.source.ListForExport(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("export: list orders: %w", err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("export: create dir: %w", err)
	}
	rows := Rows(records)
	res := Result{Records: len(records), Files: make(map[string]string), Failed: make(map[string]string)}

	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, rows); err != nil {
		return Result{}, fmt.Errorf("export: csv: %w", err)
	}
	if err := e.write(FormatCSV, csvBuf.Bytes(), &res); err != nil {
		return Result{}, err
	}

	var xlsxBuf bytes.Buffer
	if err := WriteXLSX(&xlsxBuf, rows); err != nil {
		return Result{}, fmt.Errorf("export: xlsx: %w", err)
	}
	if err := e.write(FormatXLSX, xlsxBuf.Bytes(), &res); err != nil {
		return Result{}, err
	}

	if e.pdf == nil {
		res.Failed[FormatPDF] = "pdf renderer not configured"
	} else if err := e.writePDF(ctx, rows, &res); err != nil {
		e.logger.Warn("order export pdf failed", slog.Any("error", err))
		res.Failed[FormatPDF] = err.Error()
	}

	e.logger.Info("orders exported", slog.Int("records", res.Records), slog.String("dir", e.dir))
	return res, nil
}

func (e *Exporter) writePDF(ctx context.Context, rows [][]string, res *Result) error {
	html, err := HTML(rows, e.now())
	if err != nil {
		return err
	}
	pdf, err := e.pdf.RenderHTML(ctx, html, report.Options{Landscape: true, Margin: 0.3})
	if err != nil {
		return err
	}
	return e.write(FormatPDF, pdf, res)
}

// write replaces the target file through a temporary file in the same dir.
func (e *Exporter) write(format string, data []byte, res *Result) error {
	target, err := e.Path(format)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(e.dir, BaseName+"-*."+format)
	if err != nil {
		return fmt.Errorf("export: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: write %s: %w", format, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: close %s: %w", format, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("export: replace %s: %w", format, err)
	}
	res.Files[format] = target
	return nil
}
