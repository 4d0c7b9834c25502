package report

import (
	"errors"
	"fmt"

	"github.com/themizzi/shopcheck/internal/browser"
)

// Diagnostic artifact names
const (
	NameURL        = "url"
	NameScreenshot = "screenshot"
	NamePageSource = "page_source"
	NameTrace      = "trace"
	NameLog        = "log"
)

// CaptureDiagnostics collects the current URL, a full-page screenshot and
// the page markup for a failing test. Whatever could be captured is returned
// even when some captures fail.
func CaptureDiagnostics(page browser.Page, test string) ([]Artifact, error) {
	arts := []Artifact{Text(test, NameURL, "%s", page.URL())}

	var errs []error
	if png, err := page.Screenshot("", true); err != nil {
		errs = append(errs, fmt.Errorf("screenshot: %w", err))
	} else {
		arts = append(arts, Artifact{Test: test, Name: NameScreenshot, Kind: KindPNG, Data: png})
	}
	if html, err := page.Content(); err != nil {
		errs = append(errs, fmt.Errorf("page source: %w", err))
	} else {
		arts = append(arts, Artifact{Test: test, Name: NamePageSource, Kind: KindHTML, Data: []byte(html)})
	}
	return arts, errors.Join(errs...)
}
