package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/artemoderno/storefront/internal/orders/export"
	"github.com/artemoderno/storefront/jobs"
)

type stubExporter struct {
	res export.Result
	err error
}

func (s stubExporter) Export(ctx context.Context) (export.Result, error) {
	return s.res, s.err
}

func TestRunExportText(t *testing.T) {
	var out bytes.Buffer
	exporter := stubExporter{res: export.Result{
		Records: 3,
		Files:   map[string]string{"csv": "exports/orders_export.csv", "xlsx": "exports/orders_export.xlsx"},
		Failed:  map[string]string{"pdf": "gotenberg unavailable"},
	}}

	summary, err := RunExport(context.Background(), exporter, ExportOptions{Stdout: &out})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Records)
	require.Contains(t, out.String(), "exported 3 orders")
	require.Contains(t, out.String(), "exports/orders_export.csv")
	require.Contains(t, out.String(), "pdf  skipped: gotenberg unavailable")
}

func TestRunExportJSON(t *testing.T) {
	var out bytes.Buffer
	exporter := stubExporter{res: export.Result{Records: 1, Files: map[string]string{"csv": "a.csv"}}}

	_, err := RunExport(context.Background(), exporter, ExportOptions{Stdout: &out, JSONOutput: true})
	require.NoError(t, err)

	var decoded ExportSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, "a.csv", decoded.Files["csv"])
	require.Empty(t, decoded.Failed)
}

func TestRunExportNothingWritten(t *testing.T) {
	exporter := stubExporter{res: export.Result{Failed: map[string]string{"csv": "disk full"}}}
	_, err := RunExport(context.Background(), exporter, ExportOptions{})
	require.Error(t, err)
}

func TestRunExportSourceError(t *testing.T) {
	_, err := RunExport(context.Background(), stubExporter{err: errors.New("db down")}, ExportOptions{})
	require.EqualError(t, err, "db down")
}

func TestTaskForKnownJobs(t *testing.T) {
	task, err := taskFor(JobExport, 0)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskOrdersExport, task.Type())

	task, err = taskFor(JobCleanup, 72*time.Hour)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskCheckoutKeysCleanup, task.Type())
	require.JSONEq(t, `{"retention_hours":72}`, string(task.Payload()))
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "reindex", 0)
	require.ErrorContains(t, err, "unsupported job")
}
