// Package invoice builds the one-page invoice for a single order line and
// renders it to HTML and PDF.
package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/view"
	"github.com/artemoderno/storefront/report"
	"github.com/artemoderno/storefront/web"
)

// ErrProductMissing is returned when the order has no linked product.
var ErrProductMissing = errors.New("invoice: order has no product")

// Seller is the issuing company printed on every invoice.
type Seller struct {
	Name    string
	Address string
	IDs     string
}

// DefaultSeller returns the built-in seller boilerplate.
func DefaultSeller() Seller {
	return Seller{
		Name:    "ArteModerno s.r.o.",
		Address: "Praha 1, Česká republika",
		IDs:     "IČO: 12345678, DIČ: CZ12345678",
	}
}

// OrderData is the order snapshot an invoice is built from.
type OrderData struct {
	ID        int64
	Name      string
	Email     string
	Address   string
	Quantity  int
	CreatedAt time.Time
}

// Document is a fully computed invoice. It is derived, never persisted.
type Document struct {
	Number          string
	IssuedAt        time.Time
	Seller          Seller
	CustomerName    string
	CustomerAddress string
	CustomerEmail   string
	ProductName     string
	Quantity        int
	UnitPrice       decimal.Decimal
	Total           decimal.Decimal
}

// Number formats the invoice number of an order: F007, F1234.
func Number(orderID int64) string {
	return fmt.Sprintf("F%03d", orderID)
}

// FileName is the attachment name used for a document.
func FileName(doc Document) string {
	return "faktura_" + doc.Number + ".pdf"
}

// Build computes the invoice of order priced at the product's current price.
func Build(seller Seller, order OrderData, product *catalog.Product) (Document, error) {
	if product == nil {
		return Document{}, ErrProductMissing
	}
	total := product.Price.Mul(decimal.NewFromInt(int64(order.Quantity))).Round(2)
	return Document{
		Number:          Number(order.ID),
		IssuedAt:        order.CreatedAt,
		Seller:          seller,
		CustomerName:    order.Name,
		CustomerAddress: order.Address,
		CustomerEmail:   order.Email,
		ProductName:     product.Name,
		Quantity:        order.Quantity,
		UnitPrice:       product.Price,
		Total:           total,
	}, nil
}

var (
	tplOnce sync.Once
	tpl     *template.Template
	tplErr  error
)

func invoiceTemplate() (*template.Template, error) {
	tplOnce.Do(func() {
		tpl, tplErr = template.New("invoice.html").Funcs(view.Funcs()).ParseFS(web.Templates, "templates/reports/invoice.html")
	})
	return tpl, tplErr
}

// HTML renders the fixed one-page layout.
func (d Document) HTML() ([]byte, error) {
	t, err := invoiceTemplate()
	if err != nil {
		return nil, fmt.Errorf("invoice: parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("invoice: render: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFClient converts HTML into PDF bytes.
type PDFClient interface {
	RenderHTML(ctx context.Context, html []byte, opts report.Options) ([]byte, error)
}

// Renderer produces invoice PDFs.
type Renderer struct {
	client PDFClient
}

// NewRenderer constructs a Renderer.
func NewRenderer(client PDFClient) *Renderer {
	return &Renderer{client: client}
}

// PDF renders doc to PDF bytes.
func (r *Renderer) PDF(ctx context.Context, doc Document) ([]byte, error) {
	if r == nil || r.client == nil {
		return nil, errors.New("invoice: pdf renderer not configured")
	}
	html, err := doc.HTML()
	if err != nil {
		return nil, err
	}
	pdf, err := r.client.RenderHTML(ctx, html, report.Options{Margin: 0.4})
	if err != nil {
		return nil, fmt.Errorf("invoice: render pdf %s: %w", doc.Number, err)
	}
	return pdf, nil
}
