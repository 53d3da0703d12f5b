// Package cart holds the session shopping cart: an ordered product → quantity
// mapping that is never written to relational storage.
package cart

import (
	"math"

	"github.com/artemoderno/storefront/internal/shared"
)

// MaxQuantity is the largest quantity a single cart line may hold; order rows
// store it in an INTEGER column.
const MaxQuantity = math.MaxInt32

// Cart is an insertion-ordered product → quantity mapping.
type Cart struct {
	lines []shared.CartLine
}

// New returns a cart holding a copy of lines. Entries with a non-positive
// quantity are clamped to 1 and repeated ids are merged.
func New(lines []shared.CartLine) *Cart {
	c := &Cart{}
	for _, line := range lines {
		c.Add(line.ProductID, line.Quantity)
	}
	return c
}

// Load reads the cart of a session.
func Load(sess *shared.Session) *Cart {
	return New(sess.CartLines())
}

// Save writes the cart back to the session.
func (c *Cart) Save(sess *shared.Session) {
	if sess == nil {
		return
	}
	sess.SetCartLines(c.lines)
}

// Add merges qty into the entry for productID, saturating at MaxQuantity.
// Stock is not consulted.
func (c *Cart) Add(productID int64, qty int) {
	qty = clampQuantity(qty)
	if i := c.index(productID); i >= 0 {
		if qty > MaxQuantity-c.lines[i].Quantity {
			c.lines[i].Quantity = MaxQuantity
			return
		}
		c.lines[i].Quantity += qty
		return
	}
	c.lines = append(c.lines, shared.CartLine{ProductID: productID, Quantity: qty})
}

// Update sets the quantity of existing entries, clamping each to
// [1, MaxQuantity]. Ids that are not in the cart are ignored.
func (c *Cart) Update(quantities map[int64]int) {
	for id, qty := range quantities {
		i := c.index(id)
		if i < 0 {
			continue
		}
		c.lines[i].Quantity = clampQuantity(qty)
	}
}

// Remove deletes the entry for productID; absent ids are a no-op.
func (c *Cart) Remove(productID int64) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Quantity returns the quantity of productID, or 0.
func (c *Cart) Quantity(productID int64) int {
	if i := c.index(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the entries in insertion order.
func (c *Cart) Lines() []shared.CartLine {
	out := make([]shared.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// ProductIDs returns the product ids in insertion order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, len(c.lines))
	for i, line := range c.lines {
		ids[i] = line.ProductID
	}
	return ids
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func clampQuantity(qty int) int {
	switch {
	case qty < 1:
		return 1
	case qty > MaxQuantity:
		return MaxQuantity
	}
	return qty
}

func (c *Cart) index(productID int64) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
