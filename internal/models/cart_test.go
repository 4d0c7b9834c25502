package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int64
		wantErr bool
	}{
		{name: "simple", text: "$29.99", want: 2999},
		{name: "whole dollars", text: "$7.00", want: 700},
		{name: "surrounding space", text: " $15.99\n", want: 1599},
		{name: "no currency", text: "29.99", wantErr: true},
		{name: "one decimal", text: "$29.9", wantErr: true},
		{name: "no decimals", text: "$29", wantErr: true},
		{name: "empty", text: "", wantErr: true},
		{name: "other currency", text: "€29.99", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPrice))
				assert.False(t, ValidPriceFormat(tt.text))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, ValidPriceFormat(tt.text))
		})
	}
}

func TestParsePrice_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 10_000_000).Draw(t, "cents")

		got, err := ParsePrice(FormatCents(cents))
		if err != nil {
			t.Fatalf("ParsePrice(FormatCents(%d)): %v", cents, err)
		}
		if got != cents {
			t.Fatalf("round trip: got %d want %d", got, cents)
		}
	})
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name  string
		items []CartItem
		want  Totals
	}{
		{
			name: "empty cart",
			want: Totals{},
		},
		{
			name:  "backpack",
			items: []CartItem{{Name: "Sauce Labs Backpack", Price: "$29.99"}},
			want:  Totals{ItemTotal: 2999, Tax: 240, Total: 3239},
		},
		{
			name: "three items",
			items: []CartItem{
				{Name: "Sauce Labs Backpack", Price: "$29.99"},
				{Name: "Sauce Labs Bike Light", Price: "$9.99"},
				{Name: "Sauce Labs Onesie", Price: "$7.99"},
			},
			want: Totals{ItemTotal: 4797, Tax: 384, Total: 5181},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.items)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeTotals_Labels(t *testing.T) {
	got, err := ComputeTotals([]CartItem{{Name: "Fleece Jacket", Price: "$49.99"}})
	require.NoError(t, err)

	assert.Equal(t, "Item total: $49.99", got.ItemTotalLabel())
	assert.Equal(t, "Tax: $4.00", got.TaxLabel())
	assert.Equal(t, "Total: $53.99", got.TotalLabel())
}

func TestComputeTotals_InvalidPrice(t *testing.T) {
	_, err := ComputeTotals([]CartItem{{Name: "broken", Price: "free"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Contains(t, err.Error(), "broken")
}

// The displayed grand total must equal item total plus tax rounded to two
// decimals, with tax = item_total * 0.08 computed as a real number.
func TestComputeTotals_MatchesDecimalFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prices := rapid.SliceOfN(rapid.Int64Range(1, 99_999), 0, 12).Draw(t, "prices")

		items := make([]CartItem, len(prices))
		var sum int64
		for i, p := range prices {
			items[i] = CartItem{Name: fmt.Sprintf("item-%d", i), Price: FormatCents(p)}
			sum += p
		}

		got, err := ComputeTotals(items)
		if err != nil {
			t.Fatal(err)
		}

		// tax*100 must be the nearest integer to sum*8; compare scaled by 100
		// to stay in integers.
		scaledExact := sum * 8
		scaledTax := got.Tax * 100
		diff := scaledExact - scaledTax
		if diff < 0 {
			diff = -diff
		}
		if diff*2 > 100 {
			t.Fatalf("tax %d is not sum %d * 0.08 rounded", got.Tax, sum)
		}
		if got.ItemTotal != sum || got.Total != sum+got.Tax {
			t.Fatalf("totals %+v inconsistent with sum %d", got, sum)
		}
	})
}

func TestCart_RemoveAt(t *testing.T) {
	a := CartItem{Name: "a", Price: "$1.00"}
	b := CartItem{Name: "b", Price: "$2.00"}
	c := CartItem{Name: "c", Price: "$3.00"}

	cart := NewCart(a, b, c)
	removed, err := cart.RemoveAt(0)

	require.NoError(t, err)
	assert.Equal(t, a, removed)
	assert.Equal(t, []CartItem{b, c}, cart.Items())
	assert.Equal(t, 2, cart.Len())

	_, err = cart.RemoveAt(2)
	assert.ErrorIs(t, err, ErrInvalidPosition)
	_, err = cart.RemoveAt(-1)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

// Adding N distinct items then removing them one at a time walks the count
// N, N-1, ..., 0 and keeps the survivors in their original relative order.
func TestCart_AddRemoveWalk(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "n")
		cart := NewCart()
		for i := 0; i < n; i++ {
			cart.Add(CartItem{Name: fmt.Sprintf("p%d", i), Price: "$1.00"})
		}
		if cart.Len() != n {
			t.Fatalf("len %d want %d", cart.Len(), n)
		}

		for want := n - 1; want >= 0; want-- {
			before := cart.Items()
			pos := rapid.IntRange(0, cart.Len()-1).Draw(t, "pos")
			if _, err := cart.RemoveAt(pos); err != nil {
				t.Fatal(err)
			}
			if cart.Len() != want {
				t.Fatalf("len %d want %d", cart.Len(), want)
			}
			expected := append(append([]CartItem{}, before[:pos]...), before[pos+1:]...)
			if fmt.Sprint(expected) != fmt.Sprint(cart.Items()) {
				t.Fatalf("after removing %d: got %v want %v", pos, cart.Items(), expected)
			}
		}
	})
}

func TestCart_ItemsIsACopy(t *testing.T) {
	cart := NewCart(CartItem{Name: "a", Price: "$1.00"})
	items := cart.Items()
	items[0].Name = "mutated"

	assert.Equal(t, "a", cart.Items()[0].Name)
}
