package browser

import (
	"errors"
	"os"
	"sync"
	"time"
)

type fakeEngine struct {
	mu       sync.Mutex
	contexts []*fakeContext
	closed   bool
	gotoErr  error
}

func (e *fakeEngine) NewContext(opts ContextOptions) (Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := &fakeContext{opts: opts, gotoErr: e.gotoErr}
	e.contexts = append(e.contexts, c)
	return c, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

func (e *fakeEngine) created() []*fakeContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*fakeContext(nil), e.contexts...)
}

type fakeContext struct {
	opts     ContextOptions
	gotoErr  error
	pages    []*fakePage
	tracing  bool
	traceOut []string
	closeErr error
	closed   bool
}

func (c *fakeContext) NewPage() (Page, error) {
	p := &fakePage{gotoErr: c.gotoErr}
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *fakeContext) SaveStorageState(path string) error {
	return os.WriteFile(path, []byte(`{"cookies":[],"origins":[]}`), 0o600)
}

func (c *fakeContext) StartTracing(string) error {
	if c.tracing {
		return errors.New("tracing already started")
	}
	c.tracing = true
	return nil
}

func (c *fakeContext) StopTracing(path string) error {
	if !c.tracing {
		return errors.New("tracing not started")
	}
	c.tracing = false
	c.traceOut = append(c.traceOut, path)
	return nil
}

func (c *fakeContext) Close() error {
	c.closed = true
	return c.closeErr
}

// fakePage only records navigation; the keyword layer has its own storefront
// simulator.
type fakePage struct {
	url     string
	gotoErr error
	closed  bool
}

func (p *fakePage) Goto(url string, _ LoadState) error {
	if p.gotoErr != nil {
		return p.gotoErr
	}
	p.url = url
	return nil
}

func (p *fakePage) WaitForLoadState(LoadState, time.Duration) error { return nil }
func (p *fakePage) URL() string { return p.url }
func (p *fakePage) WaitFor(string, ElementState, time.Duration) error { return nil }
func (p *fakePage) IsVisible(string) (bool, error) { return false, nil }
func (p *fakePage) Count(string) (int, error) { return 0, nil }
func (p *fakePage) InnerText(string) (string, error) { return "", nil }
func (p *fakePage) AllInnerTexts(string) ([]string, error) { return nil, nil }
func (p *fakePage) Attribute(string, string) (string, error) { return "", nil }
func (p *fakePage) Fill(string, string) error { return nil }
func (p *fakePage) Click(string) error { return nil }
func (p *fakePage) SelectOption(string, string) error { return nil }
func (p *fakePage) Reload(LoadState) error { return nil }
func (p *fakePage) GoBack() error { return nil }
func (p *fakePage) Screenshot(string, bool) ([]byte, error) { return nil, nil }
func (p *fakePage) Content() (string, error) { return "", nil }
func (p *fakePage) Sibling() (Page, error) { return &fakePage{}, nil }
func (p *fakePage) Close() error {
	p.closed = true
	return nil
}
