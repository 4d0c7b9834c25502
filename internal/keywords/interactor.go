// Package keywords is the page-interaction layer. Each page object wraps an
// Interactor, which waits for an element before touching it, asserts on what
// the page shows and logs every step.
package keywords

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
)

// DefaultTimeout bounds each wait unless a keyword needs longer.
const DefaultTimeout = 10 * time.Second

var errStillWaiting = errors.New("condition not met before timeout")

// Interactor performs waited, logged interactions on one page.
type Interactor struct {
	page    browser.Page
	log     *zap.Logger
	timeout time.Duration
	poll    time.Duration
}

// NewInteractor wraps page. A zero timeout means DefaultTimeout.
func NewInteractor(page browser.Page, log *zap.Logger, timeout time.Duration) *Interactor {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	poll := 100 * time.Millisecond
	if timeout/10 < poll {
		poll = timeout / 10
	}
	return &Interactor{page: page, log: log, timeout: timeout, poll: poll}
}

// Page returns the underlying page.
func (in *Interactor) Page() browser.Page { return in.page }

// Log returns the logger used for keyword steps.
func (in *Interactor) Log() *zap.Logger { return in.log }

// Timeout returns the default wait.
func (in *Interactor) Timeout() time.Duration { return in.timeout }

// WaitFor waits for selector to reach state.
func (in *Interactor) WaitFor(selector string, state browser.ElementState, timeout time.Duration) error {
	if err := in.page.WaitFor(selector, state, timeout); err != nil {
		in.log.Warn("wait failed",
			zap.String("selector", selector),
			zap.String("state", string(state)),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return &PreconditionError{Selector: selector, State: state, Timeout: timeout, Err: err}
	}
	return nil
}

// WaitVisible waits for the first match of selector to be visible.
func (in *Interactor) WaitVisible(selector string) error {
	return in.WaitFor(selector, browser.StateVisible, in.timeout)
}

// WaitHidden waits for selector to be hidden or gone.
func (in *Interactor) WaitHidden(selector string) error {
	return in.WaitFor(selector, browser.StateHidden, in.timeout)
}

// IsVisible reports visibility without waiting. Driver errors count as not
// visible.
func (in *Interactor) IsVisible(selector string) bool {
	ok, err := in.page.IsVisible(selector)
	return err == nil && ok
}

// Click waits for selector and clicks it.
func (in *Interactor) Click(selector string) error {
	if err := in.WaitVisible(selector); err != nil {
		return err
	}
	in.log.Info("click", zap.String("selector", selector))
	if err := in.page.Click(selector); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// Fill waits for selector and types value into it. Sensitive values are
// redacted in the log.
func (in *Interactor) Fill(selector, value string, sensitive bool) error {
	if err := in.WaitVisible(selector); err != nil {
		return err
	}
	logged := value
	if sensitive {
		logged = RedactSecret(value)
	}
	in.log.Info("fill", zap.String("selector", selector), zap.String("value", logged))
	if err := in.page.Fill(selector, value); err != nil {
		return fmt.Errorf("failed to fill %s: %w", selector, err)
	}
	return nil
}

// Select waits for a <select> and picks the option with value.
func (in *Interactor) Select(selector, value string) error {
	if err := in.WaitVisible(selector); err != nil {
		return err
	}
	in.log.Info("select", zap.String("selector", selector), zap.String("value", value))
	if err := in.page.SelectOption(selector, value); err != nil {
		return fmt.Errorf("failed to select %q in %s: %w", value, selector, err)
	}
	return nil
}

// Text waits for selector and returns its trimmed inner text.
func (in *Interactor) Text(selector string) (string, error) {
	if err := in.WaitVisible(selector); err != nil {
		return "", err
	}
	text, err := in.page.InnerText(selector)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// Texts returns the trimmed inner text of every match without waiting.
func (in *Interactor) Texts(selector string) ([]string, error) {
	texts, err := in.page.AllInnerTexts(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", selector, err)
	}
	for i := range texts {
		texts[i] = strings.TrimSpace(texts[i])
	}
	return texts, nil
}

// Count returns the number of matches without waiting.
func (in *Interactor) Count(selector string) (int, error) {
	n, err := in.page.Count(selector)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", selector, err)
	}
	return n, nil
}

// Attribute waits for selector and returns attribute name.
func (in *Interactor) Attribute(selector, name string) (string, error) {
	if err := in.WaitFor(selector, browser.StateAttached, in.timeout); err != nil {
		return "", err
	}
	v, err := in.page.Attribute(selector, name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s[%s]: %w", selector, name, err)
	}
	return v, nil
}

// eventually polls check until it holds or the default timeout passes.
func (in *Interactor) eventually(check func() (bool, error)) error {
	deadline := time.Now().Add(in.timeout)
	for {
		ok, err := check()
		if err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return errStillWaiting
		}
		time.Sleep(in.poll)
	}
}

// ExpectText asserts the element text equals want.
func (in *Interactor) ExpectText(what, selector, want string) error {
	got, err := in.Text(selector)
	if err != nil {
		return err
	}
	in.log.Info("expect text", zap.String("what", what), zap.String("expected", want), zap.String("actual", got))
	if got != want {
		return mismatch(what, want, got)
	}
	return nil
}

// ExpectTextContains asserts the element text contains want.
func (in *Interactor) ExpectTextContains(what, selector, want string) error {
	got, err := in.Text(selector)
	if err != nil {
		return err
	}
	in.log.Info("expect text contains", zap.String("what", what), zap.String("expected", want), zap.String("actual", got))
	if !strings.Contains(got, want) {
		return mismatch(what, want, got)
	}
	return nil
}

// ExpectURL waits for the current URL to match pattern.
func (in *Interactor) ExpectURL(what string, pattern *regexp.Regexp) error {
	err := in.eventually(func() (bool, error) {
		return pattern.MatchString(in.page.URL()), nil
	})
	url := in.page.URL()
	in.log.Info("expect url", zap.String("what", what), zap.String("pattern", pattern.String()), zap.String("url", url))
	if err != nil {
		return mismatch(what, pattern.String(), url)
	}
	return nil
}

// ExpectAbsentOrHidden asserts nothing visible matches selector.
func (in *Interactor) ExpectAbsentOrHidden(what, selector string) error {
	in.log.Info("expect hidden", zap.String("what", what), zap.String("selector", selector))
	if err := in.page.WaitFor(selector, browser.StateHidden, in.timeout); err != nil {
		return mismatch(what, "absent or hidden", "visible")
	}
	return nil
}

// ExpectCount waits until selector matches exactly want elements.
func (in *Interactor) ExpectCount(what, selector string, want int) error {
	var got int
	err := in.eventually(func() (bool, error) {
		n, err := in.Count(selector)
		got = n
		return n == want, err
	})
	in.log.Info("expect count", zap.String("what", what), zap.Int("expected", want), zap.Int("actual", got))
	if err != nil {
		if errors.Is(err, errStillWaiting) {
			return mismatch(what, want, got)
		}
		return err
	}
	return nil
}
