package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/observability"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"

	sendEmailMaxRetry = 5
)

// NewSendEmailTask constructs an Asynq task carrying a complete message.
func NewSendEmailTask(msg notify.Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(sendEmailMaxRetry)), nil
}

// SendEmailJob delivers queued messages.
type SendEmailJob struct {
	Sender  notify.Sender
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Handle processes TaskTypeSendEmail tasks.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var msg notify.Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TaskTypeSendEmail, err, asynq.SkipRetry)
	}
	tracker := j.Metrics.TrackJob(TaskTypeSendEmail)
	defer func() { err = tracker.End(err) }()

	if err := j.Sender.Send(ctx, msg); err != nil {
		jobLogger(j.Logger).Warn("send email", slog.String("subject", msg.Subject), slog.Any("error", err))
		return err
	}
	return nil
}

func jobLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
