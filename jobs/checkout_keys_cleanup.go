package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/artemoderno/storefront/internal/observability"
)

const (
	// TaskCheckoutKeysCleanup prunes old checkout idempotency keys.
	TaskCheckoutKeysCleanup = "checkout:keys-cleanup"

	defaultKeyRetention = 30 * 24 * time.Hour
)

// CheckoutKeysCleanupPayload configures the retention window.
type CheckoutKeysCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewCheckoutKeysCleanupTask constructs the cleanup task.
func NewCheckoutKeysCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(CheckoutKeysCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCheckoutKeysCleanup, body, asynq.Queue(QueueDefault)), nil
}

// KeyStore drops keys older than a cutoff.
type KeyStore interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CheckoutKeysCleanupJob removes expired checkout keys. A removed key lets the
// same cart be submitted again, so the window stays far above any retry.
type CheckoutKeysCleanupJob struct {
	Store   KeyStore
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Handle processes TaskCheckoutKeysCleanup tasks.
func (j *CheckoutKeysCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload CheckoutKeysCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := defaultKeyRetention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	tracker := j.Metrics.TrackJob(TaskCheckoutKeysCleanup)
	defer func() { err = tracker.End(err) }()

	removed, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		return err
	}
	jobLogger(j.Logger).Info("checkout keys pruned", slog.Int64("removed", removed), slog.Duration("retention", retention))
	return nil
}
