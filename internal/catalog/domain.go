package catalog

import (
	"errors"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// ImagePath is the public URL prefix under which product images are served.
const ImagePath = "/static/product-images/"

// ErrInvalidProduct is returned when product input fails validation.
var ErrInvalidProduct = errors.New("catalog: invalid product")

// Product is a sellable catalog item. Stock is advisory only.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	Stock         int
	ImageFilename *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ImageURL returns the public URL of the product image, or "" when unset.
func (p Product) ImageURL() string {
	if p.ImageFilename == nil || *p.ImageFilename == "" {
		return ""
	}
	return ImagePath + url.PathEscape(*p.ImageFilename)
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	Stock         int
	ImageFilename *string
}
