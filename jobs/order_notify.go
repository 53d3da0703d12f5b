package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/artemoderno/storefront/internal/observability"
	"github.com/artemoderno/storefront/internal/orders"
)

const (
	// TaskOrderNotify sends the confirmation mail of a checkout.
	TaskOrderNotify = "order:notify"

	orderNotifyMaxRetry = 5
)

// NewOrderNotifyTask constructs the confirmation task of a checkout. The task
// id is the checkout key so a checkout is never queued twice.
func NewOrderNotifyTask(n orders.Notification) (*asynq.Task, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotify, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(orderNotifyMaxRetry),
		asynq.TaskID(TaskOrderNotify+":"+n.CheckoutKey),
	), nil
}

// Confirmer delivers checkout confirmations.
type Confirmer interface {
	Confirm(ctx context.Context, n orders.Notification) error
	MarkFailed(ctx context.Context, n orders.Notification, cause error) error
}

// OrderNotifyJob runs the confirmation of a checkout and records a final
// failure on its order rows.
type OrderNotifyJob struct {
	confirmer Confirmer
	logger    *slog.Logger
	metrics   *observability.Metrics
	attempts  func(ctx context.Context) (retried, maxRetry int, ok bool)
}

// NewOrderNotifyJob wires dependencies for the notify handler.
func NewOrderNotifyJob(confirmer Confirmer, logger *slog.Logger, metrics *observability.Metrics) *OrderNotifyJob {
	return &OrderNotifyJob{confirmer: confirmer, logger: jobLogger(logger), metrics: metrics, attempts: asynqAttempts}
}

// Handle processes TaskOrderNotify tasks.
func (j *OrderNotifyJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var n orders.Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TaskOrderNotify, err, asynq.SkipRetry)
	}
	tracker := j.metrics.TrackJob(TaskOrderNotify)
	defer func() { err = tracker.End(err) }()

	logger := j.logger.With(slog.Int64("order_id", n.OrderID), slog.String("checkout_key", n.CheckoutKey))
	if err := j.confirmer.Confirm(ctx, n); err != nil {
		retried, maxRetry, ok := j.attempts(ctx)
		if !ok || retried >= maxRetry {
			logger.Error("order confirmation failed for good", slog.Any("error", err))
			if markErr := j.confirmer.MarkFailed(ctx, n, err); markErr != nil {
				logger.Error("record notification failure", slog.Any("error", markErr))
			}
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Warn("order confirmation failed, will retry", slog.Int("retried", retried), slog.Any("error", err))
		return err
	}
	logger.Info("order confirmation sent")
	return nil
}

func asynqAttempts(ctx context.Context) (int, int, bool) {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return 0, 0, false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	return retried, maxRetry, ok
}
