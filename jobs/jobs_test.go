package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/orders"
	"github.com/artemoderno/storefront/internal/orders/export"
)

type fakeConfirmer struct {
	err       error
	confirmed []orders.Notification
	failed    []string
}

func (f *fakeConfirmer) Confirm(ctx context.Context, n orders.Notification) error {
	f.confirmed = append(f.confirmed, n)
	return f.err
}

func (f *fakeConfirmer) MarkFailed(ctx context.Context, n orders.Notification, cause error) error {
	f.failed = append(f.failed, n.CheckoutKey+": "+cause.Error())
	return nil
}

func notifyTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewOrderNotifyTask(orders.Notification{OrderID: 7, CheckoutKey: "token:abc", Email: "jana@example.com", Name: "Jana"})
	require.NoError(t, err)
	return task
}

func TestOrderNotifyTaskPayload(t *testing.T) {
	task := notifyTask(t)
	assert.Equal(t, TaskOrderNotify, task.Type())

	var n orders.Notification
	require.NoError(t, json.Unmarshal(task.Payload(), &n))
	assert.Equal(t, int64(7), n.OrderID)
	assert.Equal(t, "token:abc", n.CheckoutKey)
}

func TestOrderNotifySuccess(t *testing.T) {
	confirmer := &fakeConfirmer{}
	job := NewOrderNotifyJob(confirmer, nil, nil)

	require.NoError(t, job.Handle(context.Background(), notifyTask(t)))
	require.Len(t, confirmer.confirmed, 1)
	assert.Equal(t, "Jana", confirmer.confirmed[0].Name)
	assert.Empty(t, confirmer.failed)
}

func TestOrderNotifyRetriesBeforeLastAttempt(t *testing.T) {
	confirmer := &fakeConfirmer{err: errors.New("smtp down")}
	job := NewOrderNotifyJob(confirmer, nil, nil)
	job.attempts = func(context.Context) (int, int, bool) { return 2, 5, true }

	err := job.Handle(context.Background(), notifyTask(t))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, confirmer.failed)
}

func TestOrderNotifyMarksFailedOnLastAttempt(t *testing.T) {
	confirmer := &fakeConfirmer{err: errors.New("smtp down")}
	job := NewOrderNotifyJob(confirmer, nil, nil)
	job.attempts = func(context.Context) (int, int, bool) { return 5, 5, true }

	err := job.Handle(context.Background(), notifyTask(t))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, []string{"token:abc: smtp down"}, confirmer.failed)
}

func TestOrderNotifyBadPayloadSkipsRetry(t *testing.T) {
	job := NewOrderNotifyJob(&fakeConfirmer{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskOrderNotify, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailJob(t *testing.T) {
	var got []notify.Message
	job := &SendEmailJob{Sender: notify.SenderFunc(func(ctx context.Context, msg notify.Message) error {
		got = append(got, msg)
		return nil
	})}
	task, err := NewSendEmailTask(notify.PasswordReset("jana@example.com", "http://shop.test/reset_password/x"))
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, got, 1)
	assert.Equal(t, notify.SubjectPasswordReset, got[0].Subject)
	assert.Contains(t, got[0].Body, "http://shop.test/reset_password/x")
}

type keyStore struct{ retention time.Duration }

func (k *keyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	k.retention = olderThan
	return 3, nil
}

func TestCheckoutKeysCleanup(t *testing.T) {
	store := &keyStore{}
	job := &CheckoutKeysCleanupJob{Store: store}
	task, err := NewCheckoutKeysCleanupTask(48 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, store.retention)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskCheckoutKeysCleanup, nil)))
	assert.Equal(t, defaultKeyRetention, store.retention)
}

type exporterFunc func(ctx context.Context) (export.Result, error)

func (f exporterFunc) Export(ctx context.Context) (export.Result, error) { return f(ctx) }

func TestOrdersExportJob(t *testing.T) {
	calls := 0
	job := &OrdersExportJob{Exporter: exporterFunc(func(context.Context) (export.Result, error) {
		calls++
		return export.Result{Records: 2, Failed: map[string]string{export.FormatPDF: "down"}}, nil
	})}
	require.NoError(t, job.Handle(context.Background(), NewOrdersExportTask()))
	assert.Equal(t, 1, calls)
}

type inspectorFunc func(queue string) (*asynq.QueueInfo, error)

func (f inspectorFunc) GetQueueInfo(queue string) (*asynq.QueueInfo, error) { return f(queue) }

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(inspectorFunc(func(queue string) (*asynq.QueueInfo, error) {
		return &asynq.QueueInfo{Queue: queue, Pending: 4, Retry: 1}, nil
	}), nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats QueueStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, QueueStats{Queue: QueueDefault, Pending: 4, Retry: 1}, stats)
}

func TestHealthEndpointQueueDown(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(inspectorFunc(func(string) (*asynq.QueueInfo, error) {
		return nil, errors.New("redis down")
	}), nil).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
