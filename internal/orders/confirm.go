package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/invoice"
	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/observability"
)

// ProductLookup loads a product by id.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
}

// InvoiceRenderer turns an invoice into PDF bytes.
type InvoiceRenderer interface {
	PDF(ctx context.Context, doc invoice.Document) ([]byte, error)
}

// Confirmer delivers the confirmation mail of a checkout with the invoice of
// its first order attached, and records the outcome on the order rows.
type Confirmer struct {
	repo     Repository
	products ProductLookup
	renderer InvoiceRenderer
	sender   notify.Sender
	seller   invoice.Seller
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewConfirmer constructs a Confirmer. renderer may be nil to send without
// attachment.
func NewConfirmer(repo Repository, products ProductLookup, renderer InvoiceRenderer, sender notify.Sender, seller invoice.Seller, metrics *observability.Metrics, logger *slog.Logger) *Confirmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Confirmer{repo: repo, products: products, renderer: renderer, sender: sender, seller: seller, metrics: metrics, logger: logger}
}

// Invoice builds the invoice document of an order.
func (c *Confirmer) Invoice(ctx context.Context, order Order) (invoice.Document, error) {
	if order.ProductID == nil {
		return invoice.Document{}, invoice.ErrProductMissing
	}
	product, err := c.products.Get(ctx, *order.ProductID)
	if err != nil {
		return invoice.Document{}, fmt.Errorf("load product %d: %w", *order.ProductID, err)
	}
	return invoice.Build(c.seller, order.InvoiceData(), &product)
}

// InvoicePDF renders the invoice of an order.
func (c *Confirmer) InvoicePDF(ctx context.Context, order Order) (invoice.Document, []byte, error) {
	doc, err := c.Invoice(ctx, order)
	if err != nil {
		return invoice.Document{}, nil, err
	}
	if c.renderer == nil {
		return doc, nil, fmt.Errorf("invoice renderer not configured")
	}
	pdf, err := c.renderer.PDF(ctx, doc)
	if err != nil {
		return doc, nil, err
	}
	return doc, pdf, nil
}

// Confirm sends the confirmation. A failing invoice render downgrades to a
// mail without attachment; a failing send is returned so the caller can retry
// or record it. Success is recorded on the order rows.
func (c *Confirmer) Confirm(ctx context.Context, n Notification) error {
	order, err := c.repo.Get(ctx, n.OrderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", n.OrderID, err)
	}

	var attachment []byte
	var fileName string
	doc, pdf, err := c.InvoicePDF(ctx, order)
	if err != nil {
		c.logger.Warn("invoice unavailable, sending confirmation without attachment", slog.Int64("order_id", order.ID), slog.Any("error", err))
	} else {
		attachment = pdf
		fileName = invoice.FileName(doc)
	}

	if err := c.sender.Send(ctx, notify.OrderConfirmation(n.Email, n.Name, attachment, fileName)); err != nil {
		return err
	}
	c.metrics.ObserveNotification(observability.OutcomeSent)
	if err := c.repo.SetNotificationStatus(ctx, n.CheckoutKey, NotificationSent, ""); err != nil {
		c.logger.Error("record notification success", slog.String("checkout_key", n.CheckoutKey), slog.Any("error", err))
	}
	return nil
}

// MarkFailed records a final delivery failure.
func (c *Confirmer) MarkFailed(ctx context.Context, n Notification, cause error) error {
	c.metrics.ObserveNotification(observability.OutcomeFailed)
	return c.repo.SetNotificationStatus(ctx, n.CheckoutKey, NotificationFailed, cause.Error())
}

// InlineNotifier confirms synchronously within the checkout request.
type InlineNotifier struct {
	confirmer *Confirmer
}

// NewInlineNotifier wraps a Confirmer.
func NewInlineNotifier(confirmer *Confirmer) *InlineNotifier {
	return &InlineNotifier{confirmer: confirmer}
}

// NotifyOrder implements Notifier.
func (n *InlineNotifier) NotifyOrder(ctx context.Context, notification Notification) error {
	return n.confirmer.Confirm(ctx, notification)
}

var _ Notifier = (*InlineNotifier)(nil)
