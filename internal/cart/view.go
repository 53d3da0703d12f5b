package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/artemoderno/storefront/internal/catalog"
)

// Resolver looks products up by id. Unknown ids are absent from the result.
type Resolver interface {
	Products(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
}

// Item is a cart entry resolved against the catalog.
type Item struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
}

// RemovedLine is a cart entry whose product no longer exists.
type RemovedLine struct {
	ProductID int64
	Quantity  int
}

// View is the priced cart.
type View struct {
	Items   []Item
	Removed []RemovedLine
	Total   decimal.Decimal
}

// Resolve prices every entry at the current catalog price. Entries whose
// product is gone are reported in Removed and dropped from the cart.
func Resolve(ctx context.Context, resolver Resolver, c *Cart) (View, error) {
	view := View{Total: decimal.Zero}
	if c.IsEmpty() {
		return view, nil
	}
	products, err := resolver.Products(ctx, c.ProductIDs())
	if err != nil {
		return View{}, err
	}
	for _, line := range c.Lines() {
		product, ok := products[line.ProductID]
		if !ok {
			view.Removed = append(view.Removed, RemovedLine{ProductID: line.ProductID, Quantity: line.Quantity})
			c.Remove(line.ProductID)
			continue
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, Item{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
		view.Total = view.Total.Add(subtotal)
	}
	return view, nil
}
