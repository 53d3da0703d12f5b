package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/artemoderno/storefront/internal/observability"
	"github.com/artemoderno/storefront/internal/orders/export"
)

// TaskOrdersExport regenerates the order export files.
const TaskOrdersExport = "orders:export"

// NewOrdersExportTask constructs the export task.
func NewOrdersExportTask() *asynq.Task {
	return asynq.NewTask(TaskOrdersExport, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// Exporter writes the export files.
type Exporter interface {
	Export(ctx context.Context) (export.Result, error)
}

// OrdersExportJob runs the batch export in the worker.
type OrdersExportJob struct {
	Exporter Exporter
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Handle processes TaskOrdersExport tasks.
func (j *OrdersExportJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	tracker := j.Metrics.TrackJob(TaskOrdersExport)
	defer func() { err = tracker.End(err) }()

	res, err := j.Exporter.Export(ctx)
	if err != nil {
		return err
	}
	logger := jobLogger(j.Logger)
	for format, reason := range res.Failed {
		logger.Warn("export format skipped", slog.String("format", format), slog.String("reason", reason))
	}
	return nil
}
