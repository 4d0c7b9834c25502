// Package locators holds the selector catalog for the storefront under test.
//
// The catalog is plain data built once per process and handed to the keyword
// layer through constructors; nothing in this package is mutable global state.
package locators

import (
	"fmt"
	"strings"
)

// Login selectors for the sign-in form.
type Login struct {
	Card          string
	UsernameInput string
	PasswordInput string
	SubmitButton  string
	ErrorMessage  string
}

// Products selectors for the inventory list, product detail page and header.
type Products struct {
	AppLogo       string
	Title         string
	ProductsTitle string

	Card        string
	Name        string
	Description string
	Price       string
	Image       string
	AddToCart   string
	Remove      string
	CardButton  string

	SortSelect       string
	SortActiveOption string

	CartBadge string
	CartLink  string

	DetailName    string
	DetailDesc    string
	DetailPrice   string
	DetailImage   string
	DetailBackBtn string
}

// Cart selectors for the cart page and the checkout steps.
type Cart struct {
	Title             string
	QtyLabel          string
	DescLabel         string
	Item              string
	ItemName          string
	ItemDesc          string
	ItemPrice         string
	ItemRemove        string
	ContinueShopping  string
	CheckoutButton    string
	CheckoutInfoTitle string
	FirstNameInput    string
	LastNameInput     string
	PostalCodeInput   string
	ContinueButton    string
	CancelButton      string
	CheckoutError     string
	OverviewTitle     string
	PaymentInfo       string
	ShippingInfo      string
	ItemTotal         string
	Tax               string
	Total             string
	FinishButton      string
	CompleteTitle     string
	CompleteHeader    string
	BackHomeButton    string
}

// BurgerMenu selectors for the side navigation.
type BurgerMenu struct {
	OpenButton  string
	CloseButton string
	Overlay     string
	AllItems    string
	About       string
	Logout      string
	Reset       string
}

// Paths are relative to the configured base URL.
type Paths struct {
	Inventory     string
	InventoryItem string
	Cart          string
	CheckoutOne   string
	CheckoutTwo   string
	Complete      string
}

// Catalog groups every selector by page area.
type Catalog struct {
	Login      Login
	Products   Products
	Cart       Cart
	BurgerMenu BurgerMenu
	Paths      Paths
}

// Default returns the catalog for the saucedemo storefront.
func Default() *Catalog {
	return &Catalog{
		Login: Login{
			Card:          ".login-box",
			UsernameInput: `input[placeholder*="Username"]`,
			PasswordInput: `input[placeholder*="Password"]`,
			SubmitButton:  `input[type="submit"]`,
			ErrorMessage:  `h3[data-test="error"]`,
		},
		Products: Products{
			AppLogo:       ".app_logo",
			Title:         ".title",
			ProductsTitle: `.title:text-is("Products")`,

			Card:        ".inventory_item",
			Name:        ".inventory_item_name",
			Description: ".inventory_item_desc",
			Price:       ".inventory_item_price",
			Image:       "img.inventory_item_img",
			AddToCart:   `button[data-test^="add-to-cart"]`,
			Remove:      `button[data-test^="remove"]`,
			CardButton:  "button.btn_inventory",

			SortSelect:       `select[data-test="product-sort-container"]`,
			SortActiveOption: `[data-test="active-option"]`,

			CartBadge: ".shopping_cart_badge",
			CartLink:  ".shopping_cart_link",

			DetailName:    `[data-test="inventory-item-name"]`,
			DetailDesc:    `[data-test="inventory-item-desc"]`,
			DetailPrice:   `[data-test="inventory-item-price"]`,
			DetailImage:   "img.inventory_details_img",
			DetailBackBtn: `[data-test="back-to-products"]`,
		},
		Cart: Cart{
			Title:             `.title:text-is("Your Cart")`,
			QtyLabel:          `.cart_quantity_label:text-is("QTY")`,
			DescLabel:         `.cart_desc_label:text-is("Description")`,
			Item:              ".cart_item",
			ItemName:          ".inventory_item_name",
			ItemDesc:          ".inventory_item_desc",
			ItemPrice:         ".inventory_item_price",
			ItemRemove:        `button[data-test^="remove"]`,
			ContinueShopping:  `[data-test="continue-shopping"]`,
			CheckoutButton:    `[data-test="checkout"]`,
			CheckoutInfoTitle: `.title:text-is("Checkout: Your Information")`,
			FirstNameInput:    `[data-test="firstName"]`,
			LastNameInput:     `[data-test="lastName"]`,
			PostalCodeInput:   `[data-test="postalCode"]`,
			ContinueButton:    `[data-test="continue"]`,
			CancelButton:      `[data-test="cancel"]`,
			CheckoutError:     `h3[data-test="error"]`,
			OverviewTitle:     `.title:text-is("Checkout: Overview")`,
			PaymentInfo:       `[data-test="payment-info-value"]`,
			ShippingInfo:      `[data-test="shipping-info-value"]`,
			ItemTotal:         ".summary_subtotal_label",
			Tax:               ".summary_tax_label",
			Total:             ".summary_total_label",
			FinishButton:      `[data-test="finish"]`,
			CompleteTitle:     `.title:text-is("Checkout: Complete!")`,
			CompleteHeader:    ".complete-header",
			BackHomeButton:    `[data-test="back-to-products"]`,
		},
		BurgerMenu: BurgerMenu{
			OpenButton:  "#react-burger-menu-btn",
			CloseButton: "#react-burger-cross-btn",
			Overlay:     ".bm-menu-wrap",
			AllItems:    "#inventory_sidebar_link",
			About:       "#about_sidebar_link",
			Logout:      "#logout_sidebar_link",
			Reset:       "#reset_sidebar_link",
		},
		Paths: Paths{
			Inventory:     "inventory.html",
			InventoryItem: "inventory-item.html",
			Cart:          "cart.html",
			CheckoutOne:   "checkout-step-one.html",
			CheckoutTwo:   "checkout-step-two.html",
			Complete:      "checkout-complete.html",
		},
	}
}

// Nth narrows selector to its i-th match (zero based).
func Nth(selector string, i int) string {
	return fmt.Sprintf("%s >> nth=%d", selector, i)
}

// Within scopes child to the elements matched by parent.
func Within(parent, child string) string {
	return parent + " >> " + child
}

// Split breaks a chained selector into its parts. It is the inverse of
// Within and Nth and is used by drivers that cannot evaluate chains natively.
func Split(selector string) []string {
	parts := strings.Split(selector, " >> ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
