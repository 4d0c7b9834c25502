package keywords

import (
	"errors"
	"math/rand"
	"regexp"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themizzi/shopcheck/internal/browser"
)

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "(empty)"},
		{in: "   ", want: "(empty)"},
		{in: "abc", want: "***"},
		{in: "abcd", want: "abc***"},
		{in: "secret_sauce", want: "sec***"},
		{in: "pässwörd", want: "päs***"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactSecret(tt.in))
		})
	}
}

func TestInteractor_PreconditionError(t *testing.T) {
	in := testInteractor(t, newFakeShop())

	err := in.Click(in.Page().(*fakeShop).cat.Cart.FinishButton)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreconditionNotMet))
	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, `[data-test="finish"]`, pe.Selector)
	assert.Equal(t, browser.StateVisible, pe.State)
	assert.Equal(t, in.Timeout(), pe.Timeout)
}

func TestInteractor_AssertionError(t *testing.T) {
	shop := loggedInShop()
	in := testInteractor(t, shop)

	err := in.ExpectText("title", shop.cat.Products.ProductsTitle, "Your Cart")

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.True(t, errors.Is(err, ErrAssertionFailed))
	assert.False(t, errors.Is(err, ErrPreconditionNotMet))
	assert.Equal(t, "Your Cart", ae.Expected)
	assert.Equal(t, "Products", ae.Actual)
}

func TestInteractor_ExpectURL(t *testing.T) {
	shop := loggedInShop()
	in := testInteractor(t, shop)

	assert.NoError(t, in.ExpectURL("inventory", regexp.MustCompile(`inventory\.html$`)))
	err := in.ExpectURL("cart", regexp.MustCompile(`cart\.html$`))
	assert.ErrorIs(t, err, ErrAssertionFailed)
}

func TestInteractor_ExpectCount(t *testing.T) {
	shop := loggedInShop()
	in := testInteractor(t, shop)

	assert.NoError(t, in.ExpectCount("cards", shop.cat.Products.Card, len(shopProducts)))

	err := in.ExpectCount("cards", shop.cat.Products.Card, 1)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "1", ae.Expected)
	assert.Equal(t, "6", ae.Actual)
}

func TestInteractor_ExpectAbsentOrHidden(t *testing.T) {
	shop := loggedInShop()
	in := testInteractor(t, shop)

	assert.NoError(t, in.ExpectAbsentOrHidden("badge", shop.cat.Products.CartBadge))
	assert.NoError(t, in.ExpectAbsentOrHidden("logout link", shop.cat.BurgerMenu.Logout))

	shop.cart = []int{0}
	assert.ErrorIs(t, in.ExpectAbsentOrHidden("badge", shop.cat.Products.CartBadge), ErrAssertionFailed)
}

func TestRandomData(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	info := RandomCheckoutInfo(rng)

	assert.Len(t, info.FirstName, 8)
	assert.Len(t, info.LastName, 10)
	assert.Len(t, info.PostalCode, 5)
	assert.Empty(t, info.ValidationMessage())
	for _, r := range info.FirstName + info.LastName {
		assert.True(t, unicode.IsLetter(r))
	}
	for _, r := range info.PostalCode {
		assert.True(t, unicode.IsDigit(r))
	}
}
