package orders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemoderno/storefront/internal/invoice"
	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/orders"
	"github.com/artemoderno/storefront/internal/shared"
)

type rendererFunc func(ctx context.Context, doc invoice.Document) ([]byte, error)

func (f rendererFunc) PDF(ctx context.Context, doc invoice.Document) ([]byte, error) {
	return f(ctx, doc)
}

func checkoutOnce(t *testing.T, repo *memoryRepo, notifier orders.Notifier) orders.CheckoutResult {
	t.Helper()
	svc := orders.NewService(repo, notifier, nil, nil)
	res, err := svc.Checkout(context.Background(), orders.CheckoutRequest{
		Form:  validForm(),
		Lines: []shared.CartLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
	})
	require.NoError(t, err)
	return res
}

func TestInlineConfirmationAttachesInvoice(t *testing.T) {
	repo := newMemoryRepo(fixtureProducts()...)
	var sent []notify.Message
	confirmer := orders.NewConfirmer(repo, productLookup{repo}, rendererFunc(func(ctx context.Context, doc invoice.Document) ([]byte, error) {
		return []byte("%PDF-" + doc.Number), nil
	}), notify.SenderFunc(func(ctx context.Context, msg notify.Message) error {
		sent = append(sent, msg)
		return nil
	}), invoice.DefaultSeller(), nil, nil)

	res := checkoutOnce(t, repo, orders.NewInlineNotifier(confirmer))

	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "jana@example.com", msg.To)
	assert.Equal(t, notify.SubjectOrderConfirmation, msg.Subject)
	require.Len(t, msg.Attachments, 1)
	first := res.Orders[0]
	assert.Equal(t, "faktura_"+invoice.Number(first.ID)+".pdf", msg.Attachments[0].Name)
	assert.Equal(t, []byte("%PDF-"+invoice.Number(first.ID)), msg.Attachments[0].Data)

	stored, err := repo.Get(context.Background(), res.Orders[1].ID)
	require.NoError(t, err)
	assert.Equal(t, orders.NotificationSent, stored.NotificationStatus)
}

func TestConfirmationWithoutInvoiceWhenRenderFails(t *testing.T) {
	repo := newMemoryRepo(fixtureProducts()...)
	var sent []notify.Message
	confirmer := orders.NewConfirmer(repo, productLookup{repo}, rendererFunc(func(context.Context, invoice.Document) ([]byte, error) {
		return nil, errors.New("gotenberg down")
	}), notify.SenderFunc(func(ctx context.Context, msg notify.Message) error {
		sent = append(sent, msg)
		return nil
	}), invoice.DefaultSeller(), nil, nil)

	checkoutOnce(t, repo, orders.NewInlineNotifier(confirmer))

	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].Attachments)
}

func TestInvoiceRequiresProduct(t *testing.T) {
	repo := newMemoryRepo(fixtureProducts()...)
	confirmer := orders.NewConfirmer(repo, productLookup{repo}, nil, notify.SenderFunc(func(context.Context, notify.Message) error { return nil }), invoice.DefaultSeller(), nil, nil)

	_, err := confirmer.Invoice(context.Background(), orders.Order{ID: 1})
	assert.ErrorIs(t, err, invoice.ErrProductMissing)

	res := checkoutOnce(t, repo, notifierFunc(func(context.Context, orders.Notification) error { return nil }))
	doc, err := confirmer.Invoice(context.Background(), res.Orders[0])
	require.NoError(t, err)
	assert.Equal(t, "200.00", doc.Total.StringFixed(2))

	repo.deleteProduct(1)
	_, err = confirmer.Invoice(context.Background(), res.Orders[0])
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMarkFailed(t *testing.T) {
	repo := newMemoryRepo(fixtureProducts()...)
	confirmer := orders.NewConfirmer(repo, productLookup{repo}, nil, notify.SenderFunc(func(context.Context, notify.Message) error { return nil }), invoice.DefaultSeller(), nil, nil)
	res := checkoutOnce(t, repo, notifierFunc(func(context.Context, orders.Notification) error { return nil }))

	n := orders.Notification{OrderID: res.Orders[0].ID, CheckoutKey: res.Key}
	require.NoError(t, confirmer.MarkFailed(context.Background(), n, errors.New("gave up")))

	stored, err := repo.Get(context.Background(), res.Orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, orders.NotificationFailed, stored.NotificationStatus)
	assert.Equal(t, "gave up", stored.NotificationError)
}
