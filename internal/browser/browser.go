// Package browser owns the browser engine for a test run: launching it,
// creating isolated contexts, persisting the authenticated session and
// recording traces. Automation itself is delegated to the Engine, Context and
// Page interfaces, implemented over playwright-go.
package browser

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the browser engine to launch.
type Kind string

// Supported engines
const (
	Chromium Kind = "chromium"
	Firefox  Kind = "firefox"
	WebKit   Kind = "webkit"
)

// ParseKind accepts the engine name case-insensitively. Blank means Chromium.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return Chromium, nil
	case Chromium, Firefox, WebKit:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported browser %q: want chromium, firefox or webkit", s)
	}
}

// LoadState is a navigation milestone to wait for.
type LoadState string

// Load states
const (
	LoadDOMContentLoaded LoadState = "domcontentloaded"
	LoadComplete         LoadState = "load"
	LoadNetworkIdle      LoadState = "networkidle"
)

// ElementState is the condition a selector must reach before an interaction.
type ElementState string

// Element states
const (
	StateVisible  ElementState = "visible"
	StateHidden   ElementState = "hidden"
	StateAttached ElementState = "attached"
	StateDetached ElementState = "detached"
)

// Viewport is either a fixed size or the native window size.
type Viewport struct {
	Width  int
	Height int
	Native bool
}

// FixedViewport is used for headless runs so screenshots are comparable.
var FixedViewport = Viewport{Width: 1920, Height: 1080}

// NativeWindow lets a headed browser use its maximised window.
var NativeWindow = Viewport{Native: true}

// ViewportFor returns the viewport policy for the launch mode.
func ViewportFor(headless bool) Viewport {
	if headless {
		return FixedViewport
	}
	return NativeWindow
}

func (v Viewport) String() string {
	if v.Native {
		return "native"
	}
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// ContextOptions configures a new browsing context.
type ContextOptions struct {
	// Viewport is chosen from the launch mode when nil.
	Viewport *Viewport
	// StorageStatePath seeds cookies and local storage from a saved session.
	StorageStatePath string
	// ActionTimeout bounds every driver call on pages of this context.
	ActionTimeout time.Duration
}

// LaunchOptions configures the engine process.
type LaunchOptions struct {
	Kind     Kind
	Headless bool
	SlowMo   time.Duration
}

// Launcher starts a browser engine.
type Launcher func(opts LaunchOptions) (Engine, error)

// Engine is one browser process. It only ever gains contexts.
type Engine interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
}

// Context is an isolated cookie and storage scope.
type Context interface {
	NewPage() (Page, error)
	SaveStorageState(path string) error
	StartTracing(title string) error
	// StopTracing writes the archive to path. An empty path discards it.
	StopTracing(path string) error
	Close() error
}

// Page is the set of driver capabilities the keyword layer relies on.
// Selectors use the driver's chaining syntax ("a >> b", "a >> nth=1"). Reads
// act on the first match.
type Page interface {
	Goto(url string, waitUntil LoadState) error
	WaitForLoadState(state LoadState, timeout time.Duration) error
	URL() string
	WaitFor(selector string, state ElementState, timeout time.Duration) error
	IsVisible(selector string) (bool, error)
	Count(selector string) (int, error)
	InnerText(selector string) (string, error)
	AllInnerTexts(selector string) ([]string, error)
	Attribute(selector, name string) (string, error)
	Fill(selector, value string) error
	Click(selector string) error
	SelectOption(selector, value string) error
	Reload(waitUntil LoadState) error
	GoBack() error
	// Screenshot captures the page and, when path is set, writes it there.
	Screenshot(path string, fullPage bool) ([]byte, error)
	Content() (string, error)
	// Sibling opens another page in the same context, as a new tab would.
	Sibling() (Page, error)
	Close() error
}
