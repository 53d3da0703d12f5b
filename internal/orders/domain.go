package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artemoderno/storefront/internal/invoice"
	"github.com/artemoderno/storefront/internal/shared"
)

// Order statuses offered in the back office. Status is free text; StatusNew
// is assigned at checkout.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Statuses lists the selectable statuses.
var Statuses = []string{StatusNew, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled}

// Payment methods. The choice is recorded only; no payment is processed.
const (
	PaymentCard = "card"
	PaymentCash = "cash"
)

// Notification states of a checkout's confirmation mail.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

var (
	// ErrEmptyCart rejects a checkout without cart lines.
	ErrEmptyCart = errors.New("orders: cart is empty")
	// ErrDuplicateCheckout rejects a resubmitted checkout.
	ErrDuplicateCheckout = errors.New("orders: checkout already processed")
	// ErrLineUnavailable marks a checkout whose cart references vanished products.
	ErrLineUnavailable = errors.New("orders: cart line unavailable")
)

// Order is one persisted order row: a single product line of a checkout.
type Order struct {
	ID                 int64
	Name               string
	Email              string
	Address            string
	ProductID          *int64
	CustomerID         *int64
	Quantity           int
	UnitPrice          decimal.Decimal
	PaymentMethod      string
	Status             string
	Visible            bool
	CheckoutKey        string
	NotificationStatus string
	NotificationError  string
	CreatedAt          time.Time

	// ProductName is filled by listing queries; empty when the product is gone.
	ProductName string
}

// Reference is the human order number, e.g. ORD007.
func (o Order) Reference() string {
	return fmt.Sprintf("ORD%03d", o.ID)
}

// InvoiceNumber is the invoice number of the order.
func (o Order) InvoiceNumber() string {
	return invoice.Number(o.ID)
}

// InvoiceData returns the snapshot the invoice is built from.
func (o Order) InvoiceData() invoice.OrderData {
	return invoice.OrderData{
		ID:        o.ID,
		Name:      o.Name,
		Email:     o.Email,
		Address:   o.Address,
		Quantity:  o.Quantity,
		CreatedAt: o.CreatedAt,
	}
}

// CheckoutForm is the submitted checkout form.
type CheckoutForm struct {
	Name          string `form:"name" validate:"required,max=100"`
	Email         string `form:"email" validate:"required,email,max=120"`
	Address       string `form:"address" validate:"required,max=500"`
	PaymentMethod string `form:"payment_method" validate:"required,oneof=card cash"`
	Token         string `form:"checkout_token" validate:"-"`
}

// Normalize trims surrounding whitespace of the contact fields.
func (f CheckoutForm) Normalize() CheckoutForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	f.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
	f.Token = strings.TrimSpace(f.Token)
	return f
}

// ValidationError carries per-field messages of an invalid checkout form.
type ValidationError = shared.ValidationError

// LineUnavailableError lists the product ids that could not be resolved.
type LineUnavailableError struct {
	ProductIDs []int64
}

func (e *LineUnavailableError) Error() string {
	return fmt.Sprintf("orders: products %v no longer available", e.ProductIDs)
}

// Is makes errors.Is(err, ErrLineUnavailable) match.
func (e *LineUnavailableError) Is(target error) bool {
	return target == ErrLineUnavailable
}

// Notification identifies the confirmation to deliver for a checkout.
type Notification struct {
	OrderID     int64  `json:"order_id"`
	CheckoutKey string `json:"checkout_key"`
	Email       string `json:"email"`
	Name        string `json:"name"`
}
