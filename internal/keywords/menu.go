package keywords

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/locators"
)

// AboutHost is where the About link points.
const AboutHost = "saucelabs.com"

// BurgerMenu drives the side navigation.
type BurgerMenu struct {
	in       *Interactor
	loc      locators.BurgerMenu
	login    locators.Login
	products locators.Products
	baseURL  string
}

// NewBurgerMenu builds the menu keywords.
func NewBurgerMenu(in *Interactor, cat *locators.Catalog, baseURL string) *BurgerMenu {
	return &BurgerMenu{
		in:       in,
		loc:      cat.BurgerMenu,
		login:    cat.Login,
		products: cat.Products,
		baseURL:  baseURL,
	}
}

func (m *BurgerMenu) items() []string {
	return []string{m.loc.AllItems, m.loc.About, m.loc.Logout, m.loc.Reset}
}

// Open opens the menu and waits for its links.
func (m *BurgerMenu) Open() error {
	if m.in.IsVisible(m.loc.Logout) {
		return nil
	}
	if err := m.in.Click(m.loc.OpenButton); err != nil {
		return err
	}
	return m.ExpectItems()
}

// ExpectItems asserts every menu link is showing.
func (m *BurgerMenu) ExpectItems() error {
	for _, sel := range m.items() {
		if err := m.in.WaitVisible(sel); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the menu and asserts its links are gone.
func (m *BurgerMenu) Close() error {
	if err := m.in.Click(m.loc.CloseButton); err != nil {
		return err
	}
	for _, sel := range m.items() {
		if err := m.in.ExpectAbsentOrHidden("menu link", sel); err != nil {
			return err
		}
	}
	return nil
}

// AllItems follows the "All Items" link to the inventory.
func (m *BurgerMenu) AllItems() error {
	if err := m.Open(); err != nil {
		return err
	}
	if err := m.in.Click(m.loc.AllItems); err != nil {
		return err
	}
	return m.in.WaitVisible(m.products.ProductsTitle)
}

// AboutLink asserts the About link points at the vendor site and returns it.
func (m *BurgerMenu) AboutLink() (string, error) {
	if err := m.Open(); err != nil {
		return "", err
	}
	href, err := m.in.Attribute(m.loc.About, "href")
	if err != nil {
		return "", err
	}
	if !strings.Contains(href, AboutHost) {
		return href, mismatch("about link", AboutHost, href)
	}
	return href, nil
}

// VisitAbout opens the About link in a second tab of the same context and
// returns the URL it settled on. The tab is closed afterwards.
func (m *BurgerMenu) VisitAbout() (string, error) {
	href, err := m.AboutLink()
	if err != nil {
		return "", err
	}
	tab, err := m.in.Page().Sibling()
	if err != nil {
		return "", fmt.Errorf("failed to open tab: %w", err)
	}
	defer browser.Release(m.in.Log(), "about tab", tab)

	if err := tab.Goto(href, browser.LoadDOMContentLoaded); err != nil {
		return "", fmt.Errorf("failed to open %s: %w", href, err)
	}
	url := tab.URL()
	if !strings.Contains(url, AboutHost) {
		return url, mismatch("about page url", AboutHost, url)
	}
	return url, nil
}

// Logout signs out and asserts the login form is back.
func (m *BurgerMenu) Logout() error {
	if err := m.Open(); err != nil {
		return err
	}
	if err := m.in.Click(m.loc.Logout); err != nil {
		return err
	}
	for _, sel := range []string{m.login.UsernameInput, m.login.PasswordInput} {
		if err := m.in.WaitVisible(sel); err != nil {
			return err
		}
	}
	m.in.Log().Info("logged out")
	return nil
}

// ResetAppState empties the cart through the menu and closes it again. The
// active sort is left alone.
func (m *BurgerMenu) ResetAppState() error {
	if err := m.Open(); err != nil {
		return err
	}
	if err := m.in.Click(m.loc.Reset); err != nil {
		return err
	}
	if err := m.Close(); err != nil {
		return err
	}
	if err := m.in.ExpectAbsentOrHidden("cart badge", m.products.CartBadge); err != nil {
		return err
	}
	m.in.Log().Info("app state reset")
	return nil
}

// EnsureLoggedOut leaves the browser on the login form whatever state it is
// in.
func (m *BurgerMenu) EnsureLoggedOut() error {
	if m.in.IsVisible(m.login.UsernameInput) {
		return nil
	}
	if m.in.IsVisible(m.loc.OpenButton) {
		return m.Logout()
	}
	m.in.Log().Info("navigating to login", zap.String("url", m.baseURL))
	if err := m.in.Page().Goto(m.baseURL, browser.LoadNetworkIdle); err != nil {
		return fmt.Errorf("failed to open %s: %w", m.baseURL, err)
	}
	if m.in.IsVisible(m.login.UsernameInput) {
		return nil
	}
	return m.Logout()
}
