package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/artemoderno/storefront/jobs"
)

// ExportOptions configures the export-orders command.
type ExportOptions struct {
	JSONOutput bool
	Stdout     io.Writer
}

// ExportSummary is the outcome printed by export-orders.
type ExportSummary struct {
	Records int               `json:"records"`
	Files   map[string]string `json:"files"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// RunExport writes the order export files synchronously and prints where
// they went. A format that failed is reported and does not fail the command
// as long as another format was written.
func RunExport(ctx context.Context, exporter jobs.Exporter, opts ExportOptions) (ExportSummary, error) {
	res, err := exporter.Export(ctx)
	if err != nil {
		return ExportSummary{}, err
	}
	summary := ExportSummary{Records: res.Records, Files: res.Files, Failed: res.Failed}
	if len(summary.Files) == 0 {
		err = errors.New("export: no file written")
	}
	if opts.Stdout == nil {
		return summary, err
	}
	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(summary); encErr != nil {
			return summary, encErr
		}
		return summary, err
	}
	fmt.Fprintf(opts.Stdout, "exported %d orders\n", summary.Records)
	for _, format := range sortedKeys(summary.Files) {
		fmt.Fprintf(opts.Stdout, "  %-4s %s\n", format, summary.Files[format])
	}
	for _, format := range sortedKeys(summary.Failed) {
		fmt.Fprintf(opts.Stdout, "  %-4s skipped: %s\n", format, summary.Failed[format])
	}
	return summary, err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
