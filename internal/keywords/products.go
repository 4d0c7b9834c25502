package keywords

import (
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/locators"
	"github.com/themizzi/shopcheck/internal/models"
)

// Button labels on product cards, compared case-insensitively.
const (
	LabelAddToCart = "add to cart"
	LabelRemove    = "remove"
)

// ProductsPage drives the inventory list and product detail page.
type ProductsPage struct {
	in      *Interactor
	loc     locators.Products
	baseURL string
	path    string
	rng     *rand.Rand
}

// NewProductsPage builds the product keywords. rng picks random products;
// pass a seeded source for reproducible runs.
func NewProductsPage(in *Interactor, cat *locators.Catalog, baseURL string, rng *rand.Rand) *ProductsPage {
	return &ProductsPage{
		in:      in,
		loc:     cat.Products,
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		path:    cat.Paths.Inventory,
		rng:     rng,
	}
}

// Open loads the inventory directly.
func (p *ProductsPage) Open() error {
	url := p.baseURL + p.path
	p.in.Log().Info("open inventory", zap.String("url", url))
	if err := p.in.Page().Goto(url, browser.LoadNetworkIdle); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return p.ExpectLoaded()
}

// Reload performs a full page load, which resets the sort.
func (p *ProductsPage) Reload() error {
	p.in.Log().Info("reload inventory")
	if err := p.in.Page().Reload(browser.LoadNetworkIdle); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return p.ExpectLoaded()
}

// ExpectLoaded asserts the inventory title and at least one card.
func (p *ProductsPage) ExpectLoaded() error {
	if err := p.in.WaitVisible(p.loc.ProductsTitle); err != nil {
		return err
	}
	return p.in.WaitVisible(p.loc.Card)
}

// CardCount returns the number of product cards.
func (p *ProductsPage) CardCount() (int, error) {
	return p.in.Count(p.loc.Card)
}

func (p *ProductsPage) card(i int, child string) string {
	return locators.Within(locators.Nth(p.loc.Card, i), child)
}

// CardInfo reads name, description and price of the i-th card.
func (p *ProductsPage) CardInfo(i int) (models.CartItem, error) {
	var item models.CartItem
	var err error
	if item.Name, err = p.in.Text(p.card(i, p.loc.Name)); err != nil {
		return item, err
	}
	if item.Description, err = p.in.Text(p.card(i, p.loc.Description)); err != nil {
		return item, err
	}
	if item.Price, err = p.in.Text(p.card(i, p.loc.Price)); err != nil {
		return item, err
	}
	return item, nil
}

// Names returns product names in display order.
func (p *ProductsPage) Names() ([]string, error) {
	return p.in.Texts(p.loc.Name)
}

// Prices returns product prices in display order, in cents.
func (p *ProductsPage) Prices() ([]int64, error) {
	texts, err := p.in.Texts(p.loc.Price)
	if err != nil {
		return nil, err
	}
	prices := make([]int64, len(texts))
	for i, t := range texts {
		if prices[i], err = models.ParsePrice(t); err != nil {
			return nil, &AssertionError{What: fmt.Sprintf("price of product %d", i), Expected: "$0.00 format", Actual: t}
		}
	}
	return prices, nil
}

// ValidateCoreFields asserts every card has a name, description, price,
// image and cart button.
func (p *ProductsPage) ValidateCoreFields() error {
	n, err := p.CardCount()
	if err != nil {
		return err
	}
	if n == 0 {
		return mismatch("product cards", "at least 1", 0)
	}
	for i := 0; i < n; i++ {
		item, err := p.CardInfo(i)
		if err != nil {
			return err
		}
		if item.Name == "" || item.Description == "" || item.Price == "" {
			return mismatch(fmt.Sprintf("product %d fields", i), "name, description and price", item)
		}
		if err := p.in.WaitVisible(p.card(i, p.loc.Image)); err != nil {
			return err
		}
		if err := p.in.WaitVisible(p.card(i, p.loc.CardButton)); err != nil {
			return err
		}
	}
	p.in.Log().Info("product cards complete", zap.Int("count", n))
	return nil
}

// ValidatePriceFormat asserts every price looks like "$29.99".
func (p *ProductsPage) ValidatePriceFormat() error {
	texts, err := p.in.Texts(p.loc.Price)
	if err != nil {
		return err
	}
	for i, t := range texts {
		if !models.ValidPriceFormat(t) {
			return mismatch(fmt.Sprintf("price of product %d", i), `^\$\d+\.\d{2}$`, t)
		}
	}
	return nil
}

// CartCount reads the badge. A missing or hidden badge is zero.
func (p *ProductsPage) CartCount() (int, error) {
	if !p.in.IsVisible(p.loc.CartBadge) {
		return 0, nil
	}
	text, err := p.in.Text(p.loc.CartBadge)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, mismatch("cart badge", "a number", text)
	}
	return n, nil
}

// ExpectCartCount asserts the badge shows n, or is absent when n is zero.
func (p *ProductsPage) ExpectCartCount(n int) error {
	if n == 0 {
		return p.in.ExpectAbsentOrHidden("cart badge", p.loc.CartBadge)
	}
	return p.in.ExpectText("cart badge", p.loc.CartBadge, strconv.Itoa(n))
}

// ButtonLabel returns the lower-cased label of the i-th card's button.
func (p *ProductsPage) ButtonLabel(i int) (string, error) {
	text, err := p.in.Text(p.card(i, p.loc.CardButton))
	return strings.ToLower(text), err
}

// Toggle clicks the i-th card's button and asserts its label flips and the
// badge follows. It reports whether the product is now in the cart.
func (p *ProductsPage) Toggle(i int) (bool, error) {
	return p.toggle(p.card(i, p.loc.CardButton), fmt.Sprintf("product %d", i))
}

func (p *ProductsPage) toggle(button, what string) (bool, error) {
	before, err := p.in.Text(button)
	if err != nil {
		return false, err
	}
	before = strings.ToLower(before)
	count, err := p.CartCount()
	if err != nil {
		return false, err
	}

	var want string
	switch before {
	case LabelAddToCart:
		want, count = LabelRemove, count+1
	case LabelRemove:
		want, count = LabelAddToCart, count-1
	default:
		return false, mismatch(what+" button", LabelAddToCart+" or "+LabelRemove, before)
	}

	if err := p.in.Click(button); err != nil {
		return false, err
	}
	var after string
	if err := p.in.eventually(func() (bool, error) {
		text, err := p.in.Text(button)
		after = strings.ToLower(text)
		return after == want, err
	}); err != nil {
		return false, mismatch(what+" button after click", want, after)
	}
	if err := p.ExpectCartCount(count); err != nil {
		return false, err
	}
	p.in.Log().Info("toggled cart", zap.String("product", what), zap.String("label", after), zap.Int("cart", count))
	return want == LabelRemove, nil
}

// AddAt puts the i-th product in the cart.
func (p *ProductsPage) AddAt(i int) error {
	label, err := p.ButtonLabel(i)
	if err != nil {
		return err
	}
	if label != LabelAddToCart {
		return mismatch(fmt.Sprintf("product %d button", i), LabelAddToCart, label)
	}
	_, err = p.Toggle(i)
	return err
}

// RemoveAt takes the i-th product out of the cart.
func (p *ProductsPage) RemoveAt(i int) error {
	label, err := p.ButtonLabel(i)
	if err != nil {
		return err
	}
	if label != LabelRemove {
		return mismatch(fmt.Sprintf("product %d button", i), LabelRemove, label)
	}
	_, err = p.Toggle(i)
	return err
}

// ClearCart removes every product from the inventory view until the badge is
// gone.
func (p *ProductsPage) ClearCart() error {
	for {
		n, err := p.in.Count(p.loc.Remove)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		if err := p.in.Click(p.loc.Remove); err != nil {
			return err
		}
		if err := p.in.ExpectCount("remove buttons", p.loc.Remove, n-1); err != nil {
			return err
		}
	}
	p.in.Log().Info("cart cleared")
	return p.ExpectCartCount(0)
}

// AddRandom adds count distinct random products and returns the card indices
// in the order they were added. count is capped at the catalog size. The
// badge is checked after every add.
func (p *ProductsPage) AddRandom(count int) ([]int, error) {
	n, err := p.CardCount()
	if err != nil {
		return nil, err
	}
	count = min(count, n)
	picked := p.rng.Perm(n)[:count]
	for _, i := range picked {
		if err := p.AddAt(i); err != nil {
			return nil, err
		}
	}
	p.in.Log().Info("added random products", zap.Ints("cards", picked))
	return slices.Clone(picked), nil
}

// SelectSort picks opt and asserts the dropdown shows its label.
func (p *ProductsPage) SelectSort(opt models.SortOption) error {
	if err := p.in.Select(p.loc.SortSelect, opt.Value); err != nil {
		return err
	}
	return p.ExpectActiveSort(opt)
}

// ActiveSort returns the option the dropdown currently shows.
func (p *ProductsPage) ActiveSort() (models.SortOption, error) {
	label, err := p.in.Text(p.loc.SortActiveOption)
	if err != nil {
		return models.SortOption{}, err
	}
	for _, o := range models.SortOptions() {
		if o.Label == label {
			return o, nil
		}
	}
	return models.SortOption{}, mismatch("active sort", "a known sort option", label)
}

// ExpectActiveSort asserts the dropdown label.
func (p *ProductsPage) ExpectActiveSort(opt models.SortOption) error {
	return p.in.ExpectText("active sort", p.loc.SortActiveOption, opt.Label)
}

// VerifySorted re-reads the list and asserts it is ordered by opt.
func (p *ProductsPage) VerifySorted(opt models.SortOption) error {
	switch opt.Key {
	case models.SortKeyPrice:
		prices, err := p.Prices()
		if err != nil {
			return err
		}
		if want := opt.SortedPrices(prices); !slices.Equal(prices, want) {
			return mismatch("prices "+opt.Label, want, prices)
		}
	default:
		names, err := p.Names()
		if err != nil {
			return err
		}
		if want := opt.SortedNames(names); !slices.Equal(names, want) {
			return mismatch("names "+opt.Label, want, names)
		}
	}
	p.in.Log().Info("sort verified", zap.String("sort", opt.Value))
	return nil
}

// OpenDetail clicks the i-th card's name and returns what the card showed.
func (p *ProductsPage) OpenDetail(i int) (models.CartItem, error) {
	item, err := p.CardInfo(i)
	if err != nil {
		return item, err
	}
	if err := p.in.Click(p.card(i, p.loc.Name)); err != nil {
		return item, err
	}
	return item, p.in.WaitVisible(p.loc.DetailName)
}

// ExpectDetail asserts the detail page shows item.
func (p *ProductsPage) ExpectDetail(item models.CartItem) error {
	checks := []struct{ what, sel, want string }{
		{"detail name", p.loc.DetailName, item.Name},
		{"detail description", p.loc.DetailDesc, item.Description},
		{"detail price", p.loc.DetailPrice, item.Price},
	}
	for _, c := range checks {
		if err := p.in.ExpectText(c.what, c.sel, c.want); err != nil {
			return err
		}
	}
	return p.in.WaitVisible(p.loc.DetailImage)
}

// ToggleDetail clicks the cart button on the detail page.
func (p *ProductsPage) ToggleDetail() (bool, error) {
	return p.toggle(p.loc.CardButton, "detail")
}

// BackToProducts leaves the detail page.
func (p *ProductsPage) BackToProducts() error {
	if err := p.in.Click(p.loc.DetailBackBtn); err != nil {
		return err
	}
	return p.ExpectLoaded()
}
