package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/report"
)

func TestNumberPadding(t *testing.T) {
	assert.Equal(t, "F007", Number(7))
	assert.Equal(t, "F1234", Number(1234))
}

func TestBuildComputesTotal(t *testing.T) {
	created := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	product := &catalog.Product{ID: 2, Name: "Kompozice", Price: decimal.RequireFromString("10.00")}

	doc, err := Build(DefaultSeller(), OrderData{ID: 7, Name: "Jana", Email: "jana@example.cz", Address: "Brno", Quantity: 3, CreatedAt: created}, product)
	require.NoError(t, err)

	assert.Equal(t, "F007", doc.Number)
	assert.Equal(t, "30.00", doc.Total.StringFixed(2))
	assert.Equal(t, "Kompozice", doc.ProductName)
	assert.Equal(t, "ArteModerno s.r.o.", doc.Seller.Name)
	assert.Equal(t, "faktura_F007.pdf", FileName(doc))
}

func TestBuildWithoutProduct(t *testing.T) {
	_, err := Build(DefaultSeller(), OrderData{ID: 1, Quantity: 1}, nil)
	assert.ErrorIs(t, err, ErrProductMissing)
}

func TestHTMLContainsLayout(t *testing.T) {
	product := &catalog.Product{Name: "Kompozice", Price: decimal.RequireFromString("10")}
	doc, err := Build(DefaultSeller(), OrderData{ID: 7, Name: "Jana <b>", Address: "Brno", Email: "j@e.cz", Quantity: 3, CreatedAt: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}, product)
	require.NoError(t, err)

	html, err := doc.HTML()
	require.NoError(t, err)
	body := string(html)
	assert.Contains(t, body, "Faktura F007")
	assert.Contains(t, body, "09.03.2024")
	assert.Contains(t, body, "30.00 Kč")
	assert.Contains(t, body, "IČO: 12345678, DIČ: CZ12345678")
	assert.Contains(t, body, "Jana &lt;b&gt;")
}

type fakePDF struct {
	html []byte
	err  error
}

func (f *fakePDF) RenderHTML(ctx context.Context, html []byte, opts report.Options) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF"), nil
}

func TestRendererPDF(t *testing.T) {
	doc, err := Build(DefaultSeller(), OrderData{ID: 12, Quantity: 1}, &catalog.Product{Name: "X", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	client := &fakePDF{}
	pdf, err := NewRenderer(client).PDF(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf))
	assert.Contains(t, string(client.html), "F012")

	_, err = NewRenderer(&fakePDF{err: errors.New("down")}).PDF(context.Background(), doc)
	assert.Error(t, err)
}
