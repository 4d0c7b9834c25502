package keywords

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/locators"
	"github.com/themizzi/shopcheck/internal/models"
)

// fakeShop is an in-memory storefront that answers the catalog selectors the
// way the real demo shop renders them.

type product struct {
	slug  string
	name  string
	desc  string
	cents int64
}

var shopProducts = []product{
	{"sauce-labs-backpack", "Sauce Labs Backpack", "carry.allTheThings() with the sleek, streamlined Sly Pack.", 2999},
	{"sauce-labs-bike-light", "Sauce Labs Bike Light", "A red light isn't the desired state in testing but it sure helps when riding your bike at night.", 999},
	{"sauce-labs-bolt-t-shirt", "Sauce Labs Bolt T-Shirt", "Get your testing superhero on with the Sauce Labs bolt T-shirt.", 1599},
	{"sauce-labs-fleece-jacket", "Sauce Labs Fleece Jacket", "It's not every day that you come across a midweight quarter-zip fleece jacket.", 4999},
	{"sauce-labs-onesie", "Sauce Labs Onesie", "Rib snap infant onesie for the junior automation engineer in development.", 799},
	{"test.allthethings()-t-shirt-(red)", "Test.allTheThings() T-Shirt (Red)", "This classic Sauce Labs t-shirt is perfect to wear when cozying up to your keyboard.", 1599},
}

const (
	testBaseURL        = "https://shop.test/"
	testPassword       = "secret_sauce"
	msgLockedOut       = "Epic sadface: Sorry, this user has been locked out."
	msgNoMatch         = "Epic sadface: Username and password do not match any user in this service"
	msgUserRequired    = "Epic sadface: Username is required"
	msgPasswordMissing = "Epic sadface: Password is required"
)

type elem struct {
	text     string
	visible  bool
	attrs    map[string]string
	click    func()
	children func(sel string) []elem
}

type fakeShop struct {
	cat      *locators.Catalog
	base     string
	screen   string
	external string
	loggedIn bool
	cart     []int
	sort     models.SortOption
	menuOpen bool
	detail   int
	inputs   map[string]string
	errMsg   string
	shots    []string
	closed   bool

	// hideBadge simulates a storefront that forgets to render the badge.
	hideBadge bool
	// surcharge is added to every price on the overview, totals included.
	surcharge int64
}

func newFakeShop() *fakeShop {
	return &fakeShop{
		cat:    locators.Default(),
		base:   testBaseURL,
		screen: "login",
		sort:   models.DefaultSort,
		inputs: map[string]string{},
	}
}

// loggedInShop starts on the inventory as standard_user.
func loggedInShop() *fakeShop {
	s := newFakeShop()
	s.loggedIn = true
	s.screen = "inventory"
	return s
}

func testInteractor(t *testing.T, page browser.Page) *Interactor {
	return NewInteractor(page, zaptest.NewLogger(t), 60*time.Millisecond)
}

func (s *fakeShop) on(screens ...string) bool {
	return slices.Contains(screens, s.screen)
}

func (s *fakeShop) shopping() bool {
	return s.loggedIn && !s.on("login", "external")
}

func (s *fakeShop) inCart(idx int) bool {
	return slices.Contains(s.cart, idx)
}

func (s *fakeShop) toggle(idx int) {
	if i := slices.Index(s.cart, idx); i >= 0 {
		s.cart = slices.Delete(s.cart, i, i+1)
		return
	}
	s.cart = append(s.cart, idx)
}

func (s *fakeShop) sorted() []int {
	idx := make([]int, len(shopProducts))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		var c int
		if s.sort.Key == models.SortKeyPrice {
			c = int(shopProducts[a].cents - shopProducts[b].cents)
		} else {
			c = strings.Compare(strings.ToLower(shopProducts[a].name), strings.ToLower(shopProducts[b].name))
		}
		if s.sort.Descending {
			return -c
		}
		return c
	})
	return idx
}

func one(visible bool, text string, click func()) []elem {
	return []elem{{text: text, visible: visible, click: click}}
}

func (s *fakeShop) button(idx int) elem {
	p := shopProducts[idx]
	if s.inCart(idx) {
		return elem{text: "Remove", visible: true, attrs: map[string]string{"data-test": "remove-" + p.slug}, click: func() { s.toggle(idx) }}
	}
	return elem{text: "Add to cart", visible: true, attrs: map[string]string{"data-test": "add-to-cart-" + p.slug}, click: func() { s.toggle(idx) }}
}

func (s *fakeShop) productField(idx int, sel string) []elem {
	p := shopProducts[idx]
	pl := s.cat.Products
	switch sel {
	case pl.Name:
		return one(true, p.name, func() { s.screen, s.detail = "detail", idx })
	case pl.Description:
		return one(true, p.desc, nil)
	case pl.Price:
		return one(true, models.FormatCents(p.cents), nil)
	case pl.Image:
		return one(true, "", nil)
	case pl.CardButton:
		return []elem{s.button(idx)}
	case pl.AddToCart:
		if !s.inCart(idx) {
			return []elem{s.button(idx)}
		}
	case pl.Remove:
		if s.inCart(idx) {
			return []elem{s.button(idx)}
		}
	}
	return nil
}

func (s *fakeShop) cartField(idx int, sel string) []elem {
	p := shopProducts[idx]
	cl := s.cat.Cart
	switch sel {
	case cl.ItemName:
		return one(true, p.name, nil)
	case cl.ItemDesc:
		return one(true, p.desc, nil)
	case cl.ItemPrice:
		return one(true, models.FormatCents(s.cartPrice(idx)), nil)
	case cl.ItemRemove:
		if s.on("cart") {
			return one(true, "Remove", func() { s.toggle(idx) })
		}
	}
	return nil
}

// inventoryList resolves an unscoped product selector across all cards.
func (s *fakeShop) inventoryList(sel string) []elem {
	var out []elem
	for _, idx := range s.sorted() {
		out = append(out, s.productField(idx, sel)...)
	}
	return out
}

func (s *fakeShop) cartList(sel string) []elem {
	var out []elem
	for _, idx := range s.cart {
		out = append(out, s.cartField(idx, sel)...)
	}
	return out
}

func (s *fakeShop) cartPrice(idx int) int64 {
	if s.on("overview") {
		return shopProducts[idx].cents + s.surcharge
	}
	return shopProducts[idx].cents
}

func (s *fakeShop) totals() (sum, tax int64) {
	for _, idx := range s.cart {
		sum += s.cartPrice(idx)
	}
	// The storefront computes tax in floating point and rounds for display.
	tax = int64(math.Round(float64(sum) * 0.08))
	return sum, tax
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func (s *fakeShop) root(sel string) []elem {
	c := s.cat
	switch sel {
	case c.Login.Card, c.Login.UsernameInput, c.Login.PasswordInput:
		if s.on("login") {
			return one(true, s.inputs[sel], nil)
		}
	case c.Login.SubmitButton:
		if s.on("login") {
			return one(true, "Login", s.submitLogin)
		}
	case c.Login.ErrorMessage:
		if s.errMsg != "" && s.on("login", "info") {
			return one(true, s.errMsg, nil)
		}
	case c.Products.AppLogo:
		if s.shopping() {
			return one(true, "Swag Labs", nil)
		}
	case c.BurgerMenu.OpenButton:
		if s.shopping() {
			return one(true, "Open Menu", func() { s.menuOpen = true })
		}
	case c.BurgerMenu.CloseButton:
		if s.shopping() {
			return one(s.menuOpen, "Close Menu", func() { s.menuOpen = false })
		}
	case c.BurgerMenu.Overlay:
		if s.shopping() {
			return one(s.menuOpen, "", nil)
		}
	case c.BurgerMenu.AllItems:
		if s.shopping() {
			return one(s.menuOpen, "All Items", func() { s.screen, s.menuOpen = "inventory", false })
		}
	case c.BurgerMenu.About:
		if s.shopping() {
			e := one(s.menuOpen, "About", nil)
			e[0].attrs = map[string]string{"href": "https://saucelabs.com/"}
			return e
		}
	case c.BurgerMenu.Logout:
		if s.shopping() {
			return one(s.menuOpen, "Logout", s.logout)
		}
	case c.BurgerMenu.Reset:
		if s.shopping() {
			return one(s.menuOpen, "Reset App State", func() { s.cart = nil })
		}
	case c.Products.ProductsTitle:
		if s.on("inventory") {
			return one(true, "Products", nil)
		}
	case c.Products.Card:
		if s.on("inventory") {
			var out []elem
			for _, idx := range s.sorted() {
				idx := idx
				out = append(out, elem{visible: true, children: func(child string) []elem { return s.productField(idx, child) }})
			}
			return out
		}
	case c.Products.Name, c.Products.Description, c.Products.Price, c.Products.Remove:
		// Shared with the cart item selectors.
		switch {
		case s.on("inventory"):
			return s.inventoryList(sel)
		case s.on("cart", "overview"):
			return s.cartList(sel)
		}
	case c.Products.Image, c.Products.AddToCart:
		if s.on("inventory") {
			return s.inventoryList(sel)
		}
	case c.Products.CardButton:
		switch {
		case s.on("inventory"):
			return s.inventoryList(sel)
		case s.on("detail"):
			return []elem{s.button(s.detail)}
		}
	case c.Products.SortSelect:
		if s.on("inventory") {
			return one(true, "", nil)
		}
	case c.Products.SortActiveOption:
		if s.on("inventory") {
			return one(true, s.sort.Label, nil)
		}
	case c.Products.CartBadge:
		if s.shopping() && len(s.cart) > 0 && !s.hideBadge {
			return one(true, strconv.Itoa(len(s.cart)), nil)
		}
	case c.Products.CartLink:
		if s.shopping() {
			return one(true, "", func() { s.screen, s.menuOpen = "cart", false })
		}
	case c.Products.DetailName:
		if s.on("detail") {
			return one(true, shopProducts[s.detail].name, nil)
		}
	case c.Products.DetailDesc:
		if s.on("detail") {
			return one(true, shopProducts[s.detail].desc, nil)
		}
	case c.Products.DetailPrice:
		if s.on("detail") {
			return one(true, models.FormatCents(shopProducts[s.detail].cents), nil)
		}
	case c.Products.DetailImage:
		if s.on("detail") {
			return one(true, "", nil)
		}
	case c.Products.DetailBackBtn:
		// Shared with the back-home button on the confirmation.
		if s.on("detail") {
			return one(true, "Back to products", func() { s.screen = "inventory" })
		}
		if s.on("complete") {
			return one(true, "Back Home", func() { s.screen = "inventory" })
		}
	case c.Cart.Title:
		if s.on("cart") {
			return one(true, "Your Cart", nil)
		}
	case c.Cart.QtyLabel:
		if s.on("cart", "overview") {
			return one(true, "QTY", nil)
		}
	case c.Cart.DescLabel:
		if s.on("cart", "overview") {
			return one(true, "Description", nil)
		}
	case c.Cart.Item:
		if s.on("cart", "overview") {
			var out []elem
			for _, idx := range s.cart {
				idx := idx
				out = append(out, elem{visible: true, children: func(child string) []elem { return s.cartField(idx, child) }})
			}
			return out
		}
	case c.Cart.ContinueShopping:
		if s.on("cart") {
			return one(true, "Continue Shopping", func() { s.screen = "inventory" })
		}
	case c.Cart.CheckoutButton:
		if s.on("cart") {
			return one(true, "Checkout", func() { s.screen, s.errMsg = "info", "" })
		}
	case c.Cart.CheckoutInfoTitle:
		if s.on("info") {
			return one(true, "Checkout: Your Information", nil)
		}
	case c.Cart.FirstNameInput, c.Cart.LastNameInput, c.Cart.PostalCodeInput:
		if s.on("info") {
			return one(true, s.inputs[sel], nil)
		}
	case c.Cart.ContinueButton:
		if s.on("info") {
			return one(true, "Continue", s.submitInfo)
		}
	case c.Cart.CancelButton:
		if s.on("info") {
			return one(true, "Cancel", func() { s.screen = "cart" })
		}
		if s.on("overview") {
			return one(true, "Cancel", func() { s.screen = "inventory" })
		}
	case c.Cart.OverviewTitle:
		if s.on("overview") {
			return one(true, "Checkout: Overview", nil)
		}
	case c.Cart.PaymentInfo:
		if s.on("overview") {
			return one(true, "SauceCard #31337", nil)
		}
	case c.Cart.ShippingInfo:
		if s.on("overview") {
			return one(true, "Free Pony Express Delivery!", nil)
		}
	case c.Cart.ItemTotal:
		if s.on("overview") {
			sum, _ := s.totals()
			return one(true, "Item total: "+dollars(sum), nil)
		}
	case c.Cart.Tax:
		if s.on("overview") {
			_, tax := s.totals()
			return one(true, "Tax: "+dollars(tax), nil)
		}
	case c.Cart.Total:
		if s.on("overview") {
			sum, tax := s.totals()
			return one(true, "Total: "+dollars(sum+tax), nil)
		}
	case c.Cart.FinishButton:
		if s.on("overview") {
			return one(true, "Finish", func() { s.screen, s.cart = "complete", nil })
		}
	case c.Cart.CompleteTitle:
		if s.on("complete") {
			return one(true, "Checkout: Complete!", nil)
		}
	case c.Cart.CompleteHeader:
		if s.on("complete") {
			return one(true, "Thank you for your order!", nil)
		}
	}
	return nil
}

func (s *fakeShop) resolve(sel string) []elem {
	parts := locators.Split(sel)
	els := s.root(parts[0])
	for _, part := range parts[1:] {
		if n, ok := strings.CutPrefix(part, "nth="); ok {
			i, _ := strconv.Atoi(n)
			if i < len(els) {
				els = els[i : i+1]
			} else {
				els = nil
			}
			continue
		}
		var next []elem
		for _, e := range els {
			if e.children != nil {
				next = append(next, e.children(part)...)
			}
		}
		els = next
	}
	return els
}

func (s *fakeShop) submitLogin() {
	user := s.inputs[s.cat.Login.UsernameInput]
	pass := s.inputs[s.cat.Login.PasswordInput]
	switch {
	case user == "":
		s.errMsg = msgUserRequired
	case pass == "":
		s.errMsg = msgPasswordMissing
	case pass != testPassword:
		s.errMsg = msgNoMatch
	case user == "locked_out_user":
		s.errMsg = msgLockedOut
	case user == "standard_user", user == "problem_user":
		s.loggedIn, s.screen, s.errMsg = true, "inventory", ""
	default:
		s.errMsg = msgNoMatch
	}
}

func (s *fakeShop) submitInfo() {
	info := models.CheckoutInfo{
		FirstName:  s.inputs[s.cat.Cart.FirstNameInput],
		LastName:   s.inputs[s.cat.Cart.LastNameInput],
		PostalCode: s.inputs[s.cat.Cart.PostalCodeInput],
	}
	if msg := info.ValidationMessage(); msg != "" {
		s.errMsg = msg
		return
	}
	s.screen, s.errMsg = "overview", ""
}

func (s *fakeShop) logout() {
	s.loggedIn, s.screen, s.menuOpen = false, "login", false
	s.inputs = map[string]string{}
}

func (s *fakeShop) Goto(url string, _ browser.LoadState) error {
	root := strings.TrimRight(s.base, "/")
	if url != root && !strings.HasPrefix(url, s.base) {
		s.screen, s.external = "external", url
		return nil
	}
	path := strings.TrimPrefix(strings.TrimPrefix(url, root), "/")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	s.menuOpen, s.errMsg, s.sort = false, "", models.DefaultSort

	guard := func(screen string) {
		if !s.loggedIn {
			s.screen = "login"
			s.errMsg = fmt.Sprintf("Epic sadface: You can only access '/%s' when you are logged in.", path)
			return
		}
		s.screen = screen
	}
	p := s.cat.Paths
	switch path {
	case "":
		s.screen = "login"
		s.inputs = map[string]string{}
	case p.Inventory:
		guard("inventory")
	case p.InventoryItem:
		guard("detail")
	case p.Cart:
		guard("cart")
	case p.CheckoutOne:
		guard("info")
	case p.CheckoutTwo:
		guard("overview")
	case p.Complete:
		guard("complete")
	default:
		return fmt.Errorf("404 %s", url)
	}
	return nil
}

func (s *fakeShop) WaitForLoadState(browser.LoadState, time.Duration) error { return nil }

func (s *fakeShop) URL() string {
	p := s.cat.Paths
	switch s.screen {
	case "external":
		return s.external
	case "inventory":
		return s.base + p.Inventory
	case "detail":
		return s.base + p.InventoryItem + "?id=" + strconv.Itoa(s.detail)
	case "cart":
		return s.base + p.Cart
	case "info":
		return s.base + p.CheckoutOne
	case "overview":
		return s.base + p.CheckoutTwo
	case "complete":
		return s.base + p.Complete
	default:
		return s.base
	}
}

func (s *fakeShop) WaitFor(sel string, state browser.ElementState, timeout time.Duration) error {
	els := s.resolve(sel)
	var ok bool
	switch state {
	case browser.StateVisible:
		ok = len(els) > 0 && els[0].visible
	case browser.StateHidden:
		ok = len(els) == 0 || !els[0].visible
	case browser.StateAttached:
		ok = len(els) > 0
	case browser.StateDetached:
		ok = len(els) == 0
	}
	if !ok {
		return fmt.Errorf("timeout %dms exceeded waiting for %s to be %s", timeout.Milliseconds(), sel, state)
	}
	return nil
}

func (s *fakeShop) first(sel string) (elem, error) {
	els := s.resolve(sel)
	if len(els) == 0 {
		return elem{}, fmt.Errorf("no element matches %s", sel)
	}
	return els[0], nil
}

func (s *fakeShop) IsVisible(sel string) (bool, error) {
	els := s.resolve(sel)
	return len(els) > 0 && els[0].visible, nil
}

func (s *fakeShop) Count(sel string) (int, error) {
	return len(s.resolve(sel)), nil
}

func (s *fakeShop) InnerText(sel string) (string, error) {
	e, err := s.first(sel)
	return e.text, err
}

func (s *fakeShop) AllInnerTexts(sel string) ([]string, error) {
	var out []string
	for _, e := range s.resolve(sel) {
		out = append(out, e.text)
	}
	return out, nil
}

func (s *fakeShop) Attribute(sel, name string) (string, error) {
	e, err := s.first(sel)
	if err != nil {
		return "", err
	}
	return e.attrs[name], nil
}

func (s *fakeShop) Fill(sel, value string) error {
	e, err := s.first(sel)
	if err != nil {
		return err
	}
	if !e.visible {
		return fmt.Errorf("element %s is not visible", sel)
	}
	s.inputs[sel] = value
	return nil
}

func (s *fakeShop) Click(sel string) error {
	e, err := s.first(sel)
	if err != nil {
		return err
	}
	if !e.visible {
		return fmt.Errorf("element %s is not visible", sel)
	}
	if e.click != nil {
		e.click()
	}
	return nil
}

func (s *fakeShop) SelectOption(sel, value string) error {
	if sel != s.cat.Products.SortSelect || !s.on("inventory") {
		return fmt.Errorf("no select matches %s", sel)
	}
	opt, err := models.SortOptionByValue(value)
	if err != nil {
		return err
	}
	s.sort = opt
	return nil
}

func (s *fakeShop) Reload(w browser.LoadState) error {
	return s.Goto(s.URL(), w)
}

func (s *fakeShop) GoBack() error {
	switch {
	case s.on("detail", "cart"):
		s.screen = "inventory"
	case s.on("complete"):
		s.screen = "overview"
	}
	return nil
}

func (s *fakeShop) Screenshot(path string, _ bool) ([]byte, error) {
	s.shots = append(s.shots, path)
	return []byte("\x89PNG"), nil
}

func (s *fakeShop) Content() (string, error) {
	return fmt.Sprintf("<html><body data-screen=%q></body></html>", s.screen), nil
}

func (s *fakeShop) Sibling() (browser.Page, error) {
	sib := newFakeShop()
	sib.loggedIn = s.loggedIn
	sib.screen = "blank"
	return sib, nil
}

func (s *fakeShop) Close() error {
	s.closed = true
	return nil
}
