package keywords

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/locators"
	"github.com/themizzi/shopcheck/internal/models"
)

// Fixed overview values of the demo storefront.
const (
	PaymentInformation  = "SauceCard #31337"
	ShippingInformation = "Free Pony Express Delivery!"
)

// CartPage drives the cart and the checkout steps. It tracks where the
// shopper is with a models.Checkout and refuses actions the storefront does
// not offer from the current screen.
type CartPage struct {
	in       *Interactor
	loc      locators.Cart
	products locators.Products
	baseURL  string
	path     string
	flow     *models.Checkout
}

// NewCartPage builds the cart keywords for a shopper on the inventory.
func NewCartPage(in *Interactor, cat *locators.Catalog, baseURL string) *CartPage {
	return &CartPage{
		in:       in,
		loc:      cat.Cart,
		products: cat.Products,
		baseURL:  strings.TrimRight(baseURL, "/") + "/",
		path:     cat.Paths.Cart,
		flow:     models.NewCheckout(),
	}
}

// State is the screen the flow believes is showing.
func (c *CartPage) State() models.CheckoutState {
	return c.flow.State
}

func (c *CartPage) step(action string, to func() error) error {
	from := c.flow.State
	if err := to(); err != nil {
		return err
	}
	c.in.Log().Info("checkout step", zap.String("action", action),
		zap.String("from", string(from)), zap.String("to", string(c.flow.State)))
	return nil
}

// Open follows the header cart link.
func (c *CartPage) Open() error {
	if err := c.in.Click(c.products.CartLink); err != nil {
		return err
	}
	if err := c.ExpectLoaded(); err != nil {
		return err
	}
	return c.step("open cart", c.flow.OpenCart)
}

// Navigate loads the cart URL directly.
func (c *CartPage) Navigate() error {
	url := c.baseURL + c.path
	if err := c.in.Page().Goto(url, browser.LoadNetworkIdle); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	if err := c.ExpectLoaded(); err != nil {
		return err
	}
	return c.step("navigate to cart", c.flow.OpenCart)
}

// ExpectLoaded asserts the cart title and column headers.
func (c *CartPage) ExpectLoaded() error {
	for _, sel := range []string{c.loc.Title, c.loc.QtyLabel, c.loc.DescLabel} {
		if err := c.in.WaitVisible(sel); err != nil {
			return err
		}
	}
	return nil
}

func (c *CartPage) item(i int, child string) string {
	return locators.Within(locators.Nth(c.loc.Item, i), child)
}

// Items reads the listed items in order. It works on the cart and on the
// checkout overview.
func (c *CartPage) Items() ([]models.CartItem, error) {
	n, err := c.in.Count(c.loc.Item)
	if err != nil {
		return nil, err
	}
	items := make([]models.CartItem, n)
	for i := range items {
		if items[i].Name, err = c.in.Text(c.item(i, c.loc.ItemName)); err != nil {
			return nil, err
		}
		if items[i].Description, err = c.in.Text(c.item(i, c.loc.ItemDesc)); err != nil {
			return nil, err
		}
		if items[i].Price, err = c.in.Text(c.item(i, c.loc.ItemPrice)); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func names(items []models.CartItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// Validate asserts the cart lists exactly want, in order, and the badge
// agrees.
func (c *CartPage) Validate(want []models.CartItem) error {
	got, err := c.Items()
	if err != nil {
		return err
	}
	if err := matchItems("cart items", want, got); err != nil {
		return err
	}
	return c.expectBadge(len(want))
}

// matchItems compares listed items with want by name and order, and by price
// wherever want carries one.
func matchItems(what string, want, got []models.CartItem) error {
	if !slices.Equal(names(got), names(want)) {
		return mismatch(what, names(want), names(got))
	}
	for i := range want {
		if want[i].Price != "" && got[i].Price != want[i].Price {
			return mismatch("price of "+want[i].Name, want[i].Price, got[i].Price)
		}
	}
	return nil
}

func (c *CartPage) expectBadge(n int) error {
	if n == 0 {
		return c.in.ExpectAbsentOrHidden("cart badge", c.products.CartBadge)
	}
	return c.in.ExpectText("cart badge", c.products.CartBadge, strconv.Itoa(n))
}

// RemoveAt removes the item at position and asserts the list shrinks.
func (c *CartPage) RemoveAt(position int) (models.CartItem, error) {
	items, err := c.Items()
	if err != nil {
		return models.CartItem{}, err
	}
	cart := models.NewCart(items...)
	removed, err := cart.RemoveAt(position)
	if err != nil {
		return removed, err
	}
	if err := c.in.Click(c.item(position, c.loc.ItemRemove)); err != nil {
		return removed, err
	}
	if err := c.in.ExpectCount("cart items", c.loc.Item, cart.Len()); err != nil {
		return removed, err
	}
	c.in.Log().Info("removed cart item", zap.Int("position", position), zap.String("name", removed.Name))
	return removed, c.Validate(cart.Items())
}

// RemoveAll empties the cart from the cart page.
func (c *CartPage) RemoveAll() error {
	for {
		n, err := c.in.Count(c.loc.Item)
		if err != nil {
			return err
		}
		if n == 0 {
			return c.ExpectEmpty()
		}
		if _, err := c.RemoveAt(0); err != nil {
			return err
		}
	}
}

// ExpectEmpty asserts no items are listed and the badge is gone.
func (c *CartPage) ExpectEmpty() error {
	if err := c.in.ExpectCount("cart items", c.loc.Item, 0); err != nil {
		return err
	}
	return c.expectBadge(0)
}

// ContinueShopping returns to the inventory.
func (c *CartPage) ContinueShopping() error {
	if c.flow.State != models.StateCart {
		return c.flow.ContinueShopping()
	}
	if err := c.in.Click(c.loc.ContinueShopping); err != nil {
		return err
	}
	if err := c.in.WaitVisible(c.products.ProductsTitle); err != nil {
		return err
	}
	return c.step("continue shopping", c.flow.ContinueShopping)
}

// BeginCheckout moves from the cart to the information form.
func (c *CartPage) BeginCheckout() error {
	if c.flow.State != models.StateCart {
		return c.flow.Begin()
	}
	if err := c.in.Click(c.loc.CheckoutButton); err != nil {
		return err
	}
	if err := c.in.WaitVisible(c.loc.CheckoutInfoTitle); err != nil {
		return err
	}
	return c.step("begin checkout", c.flow.Begin)
}

// FillInfo types the information form. Blank fields are cleared.
func (c *CartPage) FillInfo(info models.CheckoutInfo) error {
	fields := []struct{ sel, value string }{
		{c.loc.FirstNameInput, info.FirstName},
		{c.loc.LastNameInput, info.LastName},
		{c.loc.PostalCodeInput, info.PostalCode},
	}
	for _, f := range fields {
		if err := c.in.Fill(f.sel, f.value, false); err != nil {
			return err
		}
	}
	return nil
}

// SubmitInfo fills the form and presses continue. When info is incomplete it
// asserts the storefront shows the matching error and stays on the form.
func (c *CartPage) SubmitInfo(info models.CheckoutInfo) error {
	if c.flow.State != models.StateCheckoutInfo {
		_, err := c.flow.Submit(info)
		return err
	}
	if err := c.FillInfo(info); err != nil {
		return err
	}
	if err := c.in.Click(c.loc.ContinueButton); err != nil {
		return err
	}

	msg, err := c.flow.Submit(info)
	if err != nil {
		return err
	}
	if msg != "" {
		return c.ExpectCheckoutError(msg)
	}
	if err := c.in.WaitVisible(c.loc.OverviewTitle); err != nil {
		return err
	}
	c.in.Log().Info("checkout step", zap.String("action", "submit information"), zap.String("to", string(c.flow.State)))
	return nil
}

// ExpectCheckoutError asserts the form error banner shows msg.
func (c *CartPage) ExpectCheckoutError(msg string) error {
	return c.in.ExpectTextContains("checkout error", c.loc.CheckoutError, msg)
}

// VerifyOverview asserts the overview lists want and that item total, tax
// and total are exact to the cent.
func (c *CartPage) VerifyOverview(want []models.CartItem) error {
	if c.flow.State != models.StateCheckoutOverview {
		return fmt.Errorf("%w: overview is not showing (%s)", models.ErrInvalidCheckoutTransition, c.flow.State)
	}
	got, err := c.Items()
	if err != nil {
		return err
	}
	if err := matchItems("overview items", want, got); err != nil {
		return err
	}

	totals, err := models.ComputeTotals(got)
	if err != nil {
		return mismatch("overview prices", "$0.00 format", err)
	}
	checks := []struct{ what, sel, want string }{
		{"payment information", c.loc.PaymentInfo, PaymentInformation},
		{"shipping information", c.loc.ShippingInfo, ShippingInformation},
		{"item total", c.loc.ItemTotal, totals.ItemTotalLabel()},
		{"tax", c.loc.Tax, totals.TaxLabel()},
		{"total", c.loc.Total, totals.TotalLabel()},
	}
	for _, ch := range checks {
		if err := c.in.ExpectText(ch.what, ch.sel, ch.want); err != nil {
			return err
		}
	}
	c.in.Log().Info("overview verified",
		zap.Int("items", len(got)),
		zap.String("total", models.FormatCents(totals.Total)),
	)
	return nil
}

// Finish places the order and asserts the confirmation.
func (c *CartPage) Finish() error {
	if c.flow.State != models.StateCheckoutOverview {
		return c.flow.Finish()
	}
	if err := c.in.Click(c.loc.FinishButton); err != nil {
		return err
	}
	if err := c.in.WaitVisible(c.loc.CompleteTitle); err != nil {
		return err
	}
	if err := c.in.ExpectText("confirmation", c.loc.CompleteHeader, models.CompleteHeader); err != nil {
		return err
	}
	return c.step("finish", c.flow.Finish)
}

// BackHome returns from the confirmation to the inventory.
func (c *CartPage) BackHome() error {
	if c.flow.State != models.StateCheckoutComplete {
		return c.flow.BackHome()
	}
	if err := c.in.Click(c.loc.BackHomeButton); err != nil {
		return err
	}
	if err := c.in.WaitVisible(c.products.ProductsTitle); err != nil {
		return err
	}
	return c.step("back home", c.flow.BackHome)
}

// Cancel leaves the checkout. From the form it lands on the cart, from the
// overview on the inventory.
func (c *CartPage) Cancel() (models.CheckoutState, error) {
	next := *c.flow
	to, err := next.Cancel()
	if err != nil {
		return c.flow.State, err
	}
	if err := c.in.Click(c.loc.CancelButton); err != nil {
		return c.flow.State, err
	}
	landing := c.products.ProductsTitle
	if to == models.StateCart {
		landing = c.loc.Title
	}
	if err := c.in.WaitVisible(landing); err != nil {
		return c.flow.State, err
	}
	err = c.step("cancel", func() error {
		_, err := c.flow.Cancel()
		return err
	})
	return c.flow.State, err
}

// landing is the title shown on each checkout screen.
func (c *CartPage) landing() string {
	switch c.flow.State {
	case models.StateCart:
		return c.loc.Title
	case models.StateCheckoutInfo:
		return c.loc.CheckoutInfoTitle
	case models.StateCheckoutOverview:
		return c.loc.OverviewTitle
	case models.StateCheckoutComplete:
		return c.loc.CompleteTitle
	default:
		return c.products.ProductsTitle
	}
}

// Refresh reloads the current screen and asserts the shopper is still on it.
func (c *CartPage) Refresh() error {
	if c.flow.State == models.StateLoggedOut {
		return fmt.Errorf("%w: nothing to refresh while logged out", models.ErrInvalidCheckoutTransition)
	}
	if err := c.in.Page().Reload(browser.LoadNetworkIdle); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	if err := c.in.WaitVisible(c.landing()); err != nil {
		return err
	}
	c.in.Log().Info("refreshed", zap.String("state", string(c.flow.State)))
	return nil
}

// BackFromComplete presses the browser back button on the confirmation. The
// overview shows again with no items, the badge stays gone and the order is
// not placed a second time.
func (c *CartPage) BackFromComplete() error {
	if c.flow.State != models.StateCheckoutComplete {
		return c.flow.Back()
	}
	if err := c.in.Page().GoBack(); err != nil {
		return fmt.Errorf("failed to go back: %w", err)
	}
	if err := c.in.WaitVisible(c.loc.OverviewTitle); err != nil {
		return err
	}
	if err := c.in.ExpectCount("overview items", c.loc.Item, 0); err != nil {
		return err
	}
	if err := c.expectBadge(0); err != nil {
		return err
	}
	return c.step("back from confirmation", c.flow.Back)
}

// LoggedOut records that the shopper signed out from any screen.
func (c *CartPage) LoggedOut() error {
	return c.flow.Logout()
}
