package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher starts a playwright driver and launches the requested
// engine. Browsers must already be installed with the playwright CLI.
func PlaywrightLauncher(opts LaunchOptions) (Engine, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch opts.Kind {
	case Firefox:
		bt = pw.Firefox
	case WebKit:
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	if !opts.Headless && bt == pw.Chromium {
		launch.Args = []string{"--start-maximized"}
	}

	b, err := bt.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", opts.Kind, err)
	}
	return &pwEngine{pw: pw, browser: b, headless: opts.Headless}, nil
}

type pwEngine struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	headless bool
}

func (e *pwEngine) NewContext(opts ContextOptions) (Context, error) {
	vp := ViewportFor(e.headless)
	if opts.Viewport != nil {
		vp = *opts.Viewport
	}

	o := playwright.BrowserNewContextOptions{}
	if vp.Native {
		o.NoViewport = playwright.Bool(true)
	} else {
		o.Viewport = &playwright.Size{Width: vp.Width, Height: vp.Height}
	}
	if opts.StorageStatePath != "" {
		o.StorageStatePath = playwright.String(opts.StorageStatePath)
	}

	c, err := e.browser.NewContext(o)
	if err != nil {
		return nil, err
	}
	if opts.ActionTimeout > 0 {
		c.SetDefaultTimeout(millis(opts.ActionTimeout))
	}
	return &pwContext{ctx: c}, nil
}

func (e *pwEngine) Close() error {
	return errors.Join(e.browser.Close(), e.pw.Stop())
}

type pwContext struct {
	ctx playwright.BrowserContext
}

func (c *pwContext) NewPage() (Page, error) {
	p, err := c.ctx.NewPage()
	if err != nil {
		return nil, err
	}
	return &pwPage{page: p}, nil
}

func (c *pwContext) SaveStorageState(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	_, err := c.ctx.StorageState(path)
	return err
}

func (c *pwContext) StartTracing(title string) error {
	return c.ctx.Tracing().Start(playwright.TracingStartOptions{
		Title:       playwright.String(title),
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
		Sources:     playwright.Bool(true),
	})
}

func (c *pwContext) StopTracing(path string) error {
	if path == "" {
		return c.ctx.Tracing().Stop()
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return c.ctx.Tracing().Stop(path)
}

func (c *pwContext) Close() error {
	return c.ctx.Close()
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) first(selector string) playwright.Locator {
	return p.page.Locator(selector).First()
}

func (p *pwPage) Goto(url string, waitUntil LoadState) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: waitUntilState(waitUntil)})
	return err
}

func (p *pwPage) WaitForLoadState(state LoadState, timeout time.Duration) error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: playwright.Float(millis(timeout)),
	})
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) WaitFor(selector string, state ElementState, timeout time.Duration) error {
	return p.first(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   selectorState(state),
		Timeout: playwright.Float(millis(timeout)),
	})
}

func (p *pwPage) IsVisible(selector string) (bool, error) {
	return p.first(selector).IsVisible()
}

func (p *pwPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *pwPage) InnerText(selector string) (string, error) {
	return p.first(selector).InnerText()
}

func (p *pwPage) AllInnerTexts(selector string) ([]string, error) {
	return p.page.Locator(selector).AllInnerTexts()
}

func (p *pwPage) Attribute(selector, name string) (string, error) {
	return p.first(selector).GetAttribute(name)
}

func (p *pwPage) Fill(selector, value string) error {
	return p.first(selector).Fill(value)
}

func (p *pwPage) Click(selector string) error {
	return p.first(selector).Click()
}

func (p *pwPage) SelectOption(selector, value string) error {
	_, err := p.first(selector).SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	return err
}

func (p *pwPage) Reload(waitUntil LoadState) error {
	_, err := p.page.Reload(playwright.PageReloadOptions{WaitUntil: waitUntilState(waitUntil)})
	return err
}

func (p *pwPage) GoBack() error {
	_, err := p.page.GoBack()
	return err
}

func (p *pwPage) Screenshot(path string, fullPage bool) ([]byte, error) {
	opts := playwright.PageScreenshotOptions{FullPage: playwright.Bool(fullPage)}
	if path != "" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		opts.Path = playwright.String(path)
	}
	return p.page.Screenshot(opts)
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) Sibling() (Page, error) {
	np, err := p.page.Context().NewPage()
	if err != nil {
		return nil, err
	}
	return &pwPage{page: np}, nil
}

func (p *pwPage) Close() error {
	return p.page.Close()
}

func waitUntilState(s LoadState) *playwright.WaitUntilState {
	switch s {
	case LoadDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case LoadComplete:
		return playwright.WaitUntilStateLoad
	default:
		return playwright.WaitUntilStateNetworkidle
	}
}

func loadState(s LoadState) *playwright.LoadState {
	switch s {
	case LoadDOMContentLoaded:
		return playwright.LoadStateDomcontentloaded
	case LoadComplete:
		return playwright.LoadStateLoad
	default:
		return playwright.LoadStateNetworkidle
	}
}

func selectorState(s ElementState) *playwright.WaitForSelectorState {
	switch s {
	case StateHidden:
		return playwright.WaitForSelectorStateHidden
	case StateAttached:
		return playwright.WaitForSelectorStateAttached
	case StateDetached:
		return playwright.WaitForSelectorStateDetached
	default:
		return playwright.WaitForSelectorStateVisible
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}
