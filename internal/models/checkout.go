package models

import (
	"errors"
	"fmt"
)

// CheckoutState is the storefront screen the shopper is on.
type CheckoutState string

// Checkout states
const (
	StateInventory        CheckoutState = "inventory"
	StateCart             CheckoutState = "cart"
	StateCheckoutInfo     CheckoutState = "checkout_info"
	StateCheckoutOverview CheckoutState = "checkout_overview"
	StateCheckoutComplete CheckoutState = "checkout_complete"
	StateLoggedOut        CheckoutState = "logged_out"
)

// Checkout form validation messages, in the order the storefront checks them.
const (
	MsgFirstNameRequired  = "Error: First Name is required"
	MsgLastNameRequired   = "Error: Last Name is required"
	MsgPostalCodeRequired = "Error: Postal Code is required"
)

// CompleteHeader is shown on the terminal checkout screen.
const CompleteHeader = "Thank you for your order!"

// ErrInvalidCheckoutTransition is returned when an action is not allowed
// from the current state.
var ErrInvalidCheckoutTransition = errors.New("invalid checkout transition")

// CheckoutInfo is the shopper information form.
type CheckoutInfo struct {
	FirstName  string
	LastName   string
	PostalCode string
}

// ValidationMessage returns the error the storefront shows for this form, or
// "" when the form is complete. Only empty fields are rejected; whitespace
// counts as a value. First name is checked before last name, and
// last name before postal code.
func (i CheckoutInfo) ValidationMessage() string {
	switch {
	case i.FirstName == "":
		return MsgFirstNameRequired
	case i.LastName == "":
		return MsgLastNameRequired
	case i.PostalCode == "":
		return MsgPostalCodeRequired
	default:
		return ""
	}
}

// Checkout tracks one pass through Cart → CheckoutInfo → CheckoutOverview →
// CheckoutComplete.
type Checkout struct {
	State CheckoutState
}

// NewCheckout starts a flow on the inventory page.
func NewCheckout() *Checkout {
	return &Checkout{State: StateInventory}
}

func (c *Checkout) transition(action string, to CheckoutState, from ...CheckoutState) error {
	for _, s := range from {
		if c.State == s {
			c.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidCheckoutTransition, action, c.State)
}

// OpenCart moves to the cart page. The cart link is in the header of every
// logged-in screen.
func (c *Checkout) OpenCart() error {
	return c.transition("open cart", StateCart,
		StateInventory, StateCart, StateCheckoutInfo, StateCheckoutOverview, StateCheckoutComplete)
}

// ContinueShopping returns from the cart to the inventory.
func (c *Checkout) ContinueShopping() error {
	return c.transition("continue shopping", StateInventory, StateCart)
}

// Begin moves from the cart to the information form.
func (c *Checkout) Begin() error {
	return c.transition("begin checkout", StateCheckoutInfo, StateCart)
}

// Submit moves from the information form to the overview when info is
// complete. An incomplete form keeps the state and returns the message the
// storefront is expected to show.
func (c *Checkout) Submit(info CheckoutInfo) (string, error) {
	if c.State != StateCheckoutInfo {
		return "", fmt.Errorf("%w: cannot submit information from %s", ErrInvalidCheckoutTransition, c.State)
	}
	if msg := info.ValidationMessage(); msg != "" {
		return msg, nil
	}
	c.State = StateCheckoutOverview
	return "", nil
}

// Cancel leaves the checkout. From the information form it returns to the
// cart, from the overview it returns to the inventory.
func (c *Checkout) Cancel() (CheckoutState, error) {
	switch c.State {
	case StateCheckoutInfo:
		c.State = StateCart
	case StateCheckoutOverview:
		c.State = StateInventory
	default:
		return c.State, fmt.Errorf("%w: cannot cancel from %s", ErrInvalidCheckoutTransition, c.State)
	}
	return c.State, nil
}

// Finish places the order.
func (c *Checkout) Finish() error {
	return c.transition("finish", StateCheckoutComplete, StateCheckoutOverview)
}

// BackHome returns from the complete screen to the inventory.
func (c *Checkout) BackHome() error {
	return c.transition("go back home", StateInventory, StateCheckoutComplete)
}

// Back follows the browser back button from the confirmation to the
// overview. The order stays placed.
func (c *Checkout) Back() error {
	return c.transition("go back", StateCheckoutOverview, StateCheckoutComplete)
}

// Logout is allowed from every logged-in state.
func (c *Checkout) Logout() error {
	if c.State == StateLoggedOut {
		return fmt.Errorf("%w: already logged out", ErrInvalidCheckoutTransition)
	}
	c.State = StateLoggedOut
	return nil
}

// IsTerminal reports whether the checkout attempt has completed.
func (c *Checkout) IsTerminal() bool {
	return c.State == StateCheckoutComplete
}
