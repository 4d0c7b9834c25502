package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CurrencyPrefix is the symbol the storefront renders before every price.
const CurrencyPrefix = "$"

// TaxRateBasisPoints is the storefront sales tax, 8%.
const TaxRateBasisPoints = 800

// Domain errors
var (
	ErrInvalidPrice    = errors.New("price must be a currency-prefixed amount with two decimals")
	ErrInvalidPosition = errors.New("cart position out of range")
)

var priceFormat = regexp.MustCompile(`^\$(\d+)\.(\d{2})$`)

// CartItem is one product as rendered in a product card, the cart or the
// checkout overview.
type CartItem struct {
	Name        string
	Description string
	Price       string
}

// Cents returns the item price in minor units.
func (i CartItem) Cents() (int64, error) {
	return ParsePrice(i.Price)
}

// String is used in assertion messages and logs.
func (i CartItem) String() string {
	desc := i.Description
	if len(desc) > 40 {
		desc = desc[:40] + "..."
	}
	return fmt.Sprintf("%s (%s) %q", i.Name, i.Price, desc)
}

// ValidPriceFormat reports whether text looks like "$29.99".
func ValidPriceFormat(text string) bool {
	return priceFormat.MatchString(strings.TrimSpace(text))
}

// ParsePrice converts "$29.99" into 2999.
func ParsePrice(text string) (int64, error) {
	m := priceFormat.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	major, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	minor, _ := strconv.ParseInt(m[2], 10, 64)
	return major*100 + minor, nil
}

// FormatCents renders minor units the way the storefront does, e.g. "$29.99".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, CurrencyPrefix, cents/100, cents%100)
}

// Cart is an ordered sequence of items. Order is insertion order; removal is
// by position.
type Cart struct {
	items []CartItem
}

// NewCart copies items into a new cart.
func NewCart(items ...CartItem) *Cart {
	c := &Cart{items: make([]CartItem, 0, len(items))}
	c.items = append(c.items, items...)
	return c
}

// Add appends an item.
func (c *Cart) Add(item CartItem) {
	c.items = append(c.items, item)
}

// RemoveAt removes the item at position and returns it.
func (c *Cart) RemoveAt(position int) (CartItem, error) {
	if position < 0 || position >= len(c.items) {
		return CartItem{}, fmt.Errorf("%w: %d of %d", ErrInvalidPosition, position, len(c.items))
	}
	removed := c.items[position]
	c.items = append(c.items[:position], c.items[position+1:]...)
	return removed, nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = c.items[:0]
}

// Len returns the number of items, which is what the badge must show.
func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the items in order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Totals computes the checkout totals for the current contents.
func (c *Cart) Totals() (Totals, error) {
	return ComputeTotals(c.items)
}

// Totals are always derived from the items, never stored.
type Totals struct {
	ItemTotal int64
	Tax       int64
	Total     int64
}

// ComputeTotals sums the prices and applies the 8% tax rounded to the cent.
//
// tax = round(itemTotal * 0.08, 2) which in cents is (c*8 + 50) / 100. An
// exact half cent would need 4c ≡ 25 (mod 50), which has no solution, so the
// rounding mode never matters.
func ComputeTotals(items []CartItem) (Totals, error) {
	var sum int64
	for _, item := range items {
		cents, err := item.Cents()
		if err != nil {
			return Totals{}, fmt.Errorf("item %q: %w", item.Name, err)
		}
		sum += cents
	}
	tax := (sum*TaxRateBasisPoints + 5000) / 10000
	return Totals{
		ItemTotal: sum,
		Tax:       tax,
		Total:     sum + tax,
	}, nil
}

// ItemTotalLabel is the overview text for the subtotal.
func (t Totals) ItemTotalLabel() string {
	return "Item total: " + FormatCents(t.ItemTotal)
}

// TaxLabel is the overview text for the tax line.
func (t Totals) TaxLabel() string {
	return "Tax: " + FormatCents(t.Tax)
}

// TotalLabel is the overview text for the grand total.
func (t Totals) TotalLabel() string {
	return "Total: " + FormatCents(t.Total)
}
