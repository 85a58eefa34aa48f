package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Line is a product instance placed in a cart. Name and BasePrice are snapshotted when
// the line is created and never follow later catalog edits.
type Line struct {
	Key            string          `json:"key"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Quantity       int             `json:"quantity"`
	Customizations Customizations  `json:"customizations,omitempty"`
}

// Cart is an ordered list of lines with unique keys.
type Cart struct {
	Lines []Line `json:"lines"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Find returns the line with the given key.
func (c Cart) Find(key string) (Line, bool) {
	if i := c.index(key); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// QuantityOf sums the quantity of every line for productID across customizations.
func (c Cart) QuantityOf(productID string) int {
	total := 0
	for _, line := range c.Lines {
		if line.ProductID == productID {
			total += line.Quantity
		}
	}
	return total
}

// ItemCount sums quantities across all lines.
func (c Cart) ItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func (c Cart) index(key string) int {
	for i, line := range c.Lines {
		if line.Key == key {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	lines := make([]Line, len(c.Lines))
	for i, line := range c.Lines {
		line.Customizations = line.Customizations.clone()
		lines[i] = line
	}
	return Cart{Lines: lines}
}

// AddToCart merges qty units of product with the given customizations into the cart.
// A line with the same identity key has its quantity increased; otherwise a new line is
// appended. The input cart is never modified.
func AddToCart(cart Cart, product Product, qty int, customizations Customizations) (Cart, error) {
	if qty <= 0 {
		return cart, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}

	key := LineKey(product.ID, customizations)
	next := cart.clone()
	if i := next.index(key); i >= 0 {
		if next.Lines[i].Quantity > math.MaxInt-qty {
			return cart, fmt.Errorf("%w: line %s cannot hold %d more", ErrInvalidQuantity, key, qty)
		}
		next.Lines[i].Quantity += qty
		return next, nil
	}

	next.Lines = append(next.Lines, Line{
		Key:            key,
		ProductID:      product.ID,
		ProductName:    product.Name,
		BasePrice:      product.BasePrice,
		Quantity:       qty,
		Customizations: customizations.clone(),
	})
	return next, nil
}

// DecrementLine takes one unit off the line; a line at quantity one is removed.
func DecrementLine(cart Cart, key string) (Cart, error) {
	i := cart.index(key)
	if i < 0 {
		return cart, unknownLine(key)
	}
	if cart.Lines[i].Quantity <= 1 {
		return RemoveLine(cart, key)
	}
	next := cart.clone()
	next.Lines[i].Quantity--
	return next, nil
}

// RemoveLine drops the line regardless of its quantity.
func RemoveLine(cart Cart, key string) (Cart, error) {
	i := cart.index(key)
	if i < 0 {
		return cart, unknownLine(key)
	}
	next := cart.clone()
	next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
	return next, nil
}

func unknownLine(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", ErrUnknownLine)
	}
	return fmt.Errorf("%w: %s", ErrUnknownLine, key)
}
