package models

import (
	"fmt"
	"slices"
	"strings"
)

// SortKey is the product attribute a sort option orders by.
type SortKey string

// Sort keys
const (
	SortKeyName  SortKey = "name"
	SortKeyPrice SortKey = "price"
)

// SortOption is one entry of the product sort dropdown. Only one option is
// active at a time, so picking a price sort replaces any name sort.
type SortOption struct {
	Key        SortKey
	Descending bool
	Value      string
	Label      string
}

// Sort options offered by the storefront.
var (
	SortNameAsc   = SortOption{Key: SortKeyName, Value: "az", Label: "Name (A to Z)"}
	SortNameDesc  = SortOption{Key: SortKeyName, Descending: true, Value: "za", Label: "Name (Z to A)"}
	SortPriceAsc  = SortOption{Key: SortKeyPrice, Value: "lohi", Label: "Price (low to high)"}
	SortPriceDesc = SortOption{Key: SortKeyPrice, Descending: true, Value: "hilo", Label: "Price (high to low)"}
)

// DefaultSort is active after a full page load.
var DefaultSort = SortNameAsc

// SortOptions lists every option in dropdown order.
func SortOptions() []SortOption {
	return []SortOption{SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc}
}

// SortOptionByValue looks up an option by its <option value>.
func SortOptionByValue(value string) (SortOption, error) {
	for _, o := range SortOptions() {
		if o.Value == value {
			return o, nil
		}
	}
	return SortOption{}, fmt.Errorf("unknown sort option %q", value)
}

// SortedNames returns names ordered case-insensitively in the option's
// direction. The input is not modified.
func (o SortOption) SortedNames(names []string) []string {
	out := slices.Clone(names)
	slices.SortStableFunc(out, func(a, b string) int {
		c := strings.Compare(strings.ToLower(a), strings.ToLower(b))
		if o.Descending {
			return -c
		}
		return c
	})
	return out
}

// SortedPrices returns prices ordered numerically in the option's direction.
func (o SortOption) SortedPrices(prices []int64) []int64 {
	out := slices.Clone(prices)
	slices.SortStableFunc(out, func(a, b int64) int {
		var c int
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
		if o.Descending {
			return -c
		}
		return c
	})
	return out
}
