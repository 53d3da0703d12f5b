package orders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/artemoderno/storefront/internal/observability"
	"github.com/artemoderno/storefront/internal/shared"
)

// Notifier hands a committed checkout over for confirmation delivery.
type Notifier interface {
	NotifyOrder(ctx context.Context, n Notification) error
}

// CheckoutRequest is one checkout attempt.
type CheckoutRequest struct {
	Form       CheckoutForm
	Lines      []shared.CartLine
	CustomerID *int64
	SessionID  string
}

// CheckoutResult describes a committed checkout.
type CheckoutResult struct {
	Key    string
	Orders []Order
}

// Service wraps order business rules.
type Service struct {
	repo      Repository
	notifier  Notifier
	metrics   *observability.Metrics
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

// NewService constructs a Service. notifier and metrics may be nil.
func NewService(repo Repository, notifier Notifier, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		validator: shared.NewValidator(),
		now:       time.Now,
	}
}

// Validate checks the checkout form.
func (s *Service) Validate(form CheckoutForm) error {
	return shared.Validate(s.validator, form)
}

// Checkout writes one order per cart line in a single transaction and hands
// the first order to the notifier. The form is validated trimmed, but the rows
// keep the contact fields exactly as submitted. Notification failures are recorded on the
// orders and never returned.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	if len(req.Lines) == 0 {
		s.metrics.ObserveCheckout(observability.OutcomeEmptyCart, 0)
		return CheckoutResult{}, ErrEmptyCart
	}
	form := req.Form.Normalize()
	if err := s.Validate(form); err != nil {
		s.metrics.ObserveCheckout(observability.OutcomeInvalid, 0)
		return CheckoutResult{}, err
	}
	key := CheckoutKey(form.Token, req.SessionID, req.Lines)

	var created []Order
	err := s.repo.WithTx(ctx, func(tx TxRepository) error {
		if err := tx.ClaimCheckoutKey(ctx, key); err != nil {
			return err
		}
		ids := make([]int64, len(req.Lines))
		for i, line := range req.Lines {
			ids[i] = line.ProductID
		}
		products, err := tx.Products(ctx, ids)
		if err != nil {
			return fmt.Errorf("resolve products: %w", err)
		}
		var missing []int64
		for _, id := range ids {
			if _, ok := products[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return &LineUnavailableError{ProductIDs: missing}
		}

		now := s.now().UTC()
		created = created[:0]
		for _, line := range req.Lines {
			product := products[line.ProductID]
			productID := product.ID
			order, err := tx.InsertOrder(ctx, Order{
				Name:               req.Form.Name,
				Email:              req.Form.Email,
				Address:            req.Form.Address,
				ProductID:          &productID,
				CustomerID:         req.CustomerID,
				Quantity:           line.Quantity,
				UnitPrice:          product.Price,
				PaymentMethod:      form.PaymentMethod,
				Status:             StatusNew,
				Visible:            true,
				CheckoutKey:        key,
				NotificationStatus: NotificationPending,
				CreatedAt:          now,
			})
			if err != nil {
				return fmt.Errorf("insert order line %d: %w", line.ProductID, err)
			}
			order.ProductName = product.Name
			created = append(created, order)
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveCheckout(checkoutOutcome(err), 0)
		return CheckoutResult{}, err
	}

	s.metrics.ObserveCheckout(observability.OutcomeSuccess, len(created))
	s.logger.Info("checkout committed", slog.String("checkout_key", key), slog.Int("lines", len(created)), slog.Int64("order_id", created[0].ID))

	s.notify(ctx, Notification{
		OrderID:     created[0].ID,
		CheckoutKey: key,
		Email:       form.Email,
		Name:        form.Name,
	})
	return CheckoutResult{Key: key, Orders: created}, nil
}

func (s *Service) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		s.markFailed(ctx, n.CheckoutKey, errors.New("no notifier configured"))
		return
	}
	if err := s.notifier.NotifyOrder(ctx, n); err != nil {
		s.logger.Error("order notification failed", slog.Int64("order_id", n.OrderID), slog.Any("error", err))
		s.markFailed(ctx, n.CheckoutKey, err)
	}
}

func (s *Service) markFailed(ctx context.Context, key string, cause error) {
	s.metrics.ObserveNotification(observability.OutcomeFailed)
	if err := s.repo.SetNotificationStatus(ctx, key, NotificationFailed, cause.Error()); err != nil {
		s.logger.Error("record notification failure", slog.String("checkout_key", key), slog.Any("error", err))
	}
}

// ListByCustomer returns the order history of a customer.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// ListVisible returns the back-office order list.
func (s *Service) ListVisible(ctx context.Context) ([]Order, error) {
	return s.repo.ListVisible(ctx)
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// Hide soft-deletes an order from the back-office list.
func (s *Service) Hide(ctx context.Context, id int64) error {
	return s.repo.SetVisible(ctx, id, false)
}

// UpdateStatus sets a free-text status; blank values are rejected.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	status = strings.TrimSpace(status)
	if status == "" || len(status) > 50 {
		return &ValidationError{Fields: map[string]string{"status": "Neplatný stav."}}
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// CheckoutKey derives the idempotency key of a checkout: the form token when
// it is a UUID, otherwise a digest of the session id and the cart contents.
func CheckoutKey(token, sessionID string, lines []shared.CartLine) string {
	if id, err := uuid.Parse(token); err == nil {
		return "token:" + id.String()
	}
	var b strings.Builder
	b.WriteString(sessionID)
	for _, line := range lines {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(line.ProductID, 10))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(line.Quantity))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return "cart:" + hex.EncodeToString(sum[:])
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateCheckout):
		return observability.OutcomeDuplicate
	case errors.Is(err, ErrLineUnavailable):
		return observability.OutcomeUnavailable
	default:
		return observability.OutcomeError
	}
}
