package suite

import (
	"errors"
	"hash/fnv"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/keywords"
	"github.com/themizzi/shopcheck/internal/logging"
	"github.com/themizzi/shopcheck/internal/models"
	"github.com/themizzi/shopcheck/internal/report"
	"github.com/themizzi/shopcheck/internal/services"
)

// Fixture is one test's browser page and the keywords bound to it. It is
// released by t.Cleanup on every exit path.
type Fixture struct {
	T     testing.TB
	Page  browser.Page
	Log   *zap.Logger
	Rand  *rand.Rand
	In    *keywords.Interactor
	Login *keywords.LoginPage
	Shop  *keywords.ProductsPage
	Cart  *keywords.CartPage
	Menu  *keywords.BurgerMenu

	suite    *Suite
	ctx      browser.Context
	trace    *browser.Recorder
	result   *models.CaseResult
	closeLog func() error
	logFile  string
	failure  string
	reset    bool
	released bool
}

// FixtureOption tunes a fixture.
type FixtureOption func(*fixtureOptions)

type fixtureOptions struct {
	severity string
}

// Severity tags the test's result. Tests whose severity is not selected are
// skipped.
func Severity(s string) FixtureOption {
	return func(o *fixtureOptions) {
		if s != "" {
			o.severity = s
		}
	}
}

// Page gives t a fresh context with no session, for login tests.
func (s *Suite) Page(t testing.TB, opts ...FixtureOption) *Fixture {
	t.Helper()
	f := s.begin(t, opts)

	ctx, err := s.Manager.NewContext(browser.ContextOptions{})
	if err != nil {
		f.Fatal(err)
	}
	f.ctx = ctx
	page, err := ctx.NewPage()
	if err != nil {
		f.Fatal(err)
	}
	f.bind(page)
	return f
}

// LoggedInPage gives t a context seeded with the run's session, already on
// the inventory.
func (s *Suite) LoggedInPage(t testing.TB, opts ...FixtureOption) *Fixture {
	t.Helper()
	f := s.begin(t, opts)

	artifact, err := s.Session()
	if err != nil {
		f.Fatal(err)
	}
	ctx, page, err := s.Manager.NewAuthenticatedPage(artifact, s.Config.URL(s.Catalog.Paths.Inventory))
	if err != nil {
		f.Fatal(err)
	}
	f.ctx = ctx
	f.bind(page)
	return f
}

func (s *Suite) begin(t testing.TB, opts []FixtureOption) *Fixture {
	t.Helper()
	o := fixtureOptions{severity: models.DefaultSeverity}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Fixture{T: t, suite: s, Log: s.log, closeLog: noop}
	log, closeLog, err := logging.ForTest(s.log, s.Config.LogsDir, s.pkg, t.Name())
	if err != nil {
		s.log.Warn("per-test log disabled", zap.String("test", t.Name()), zap.Error(err))
	} else {
		f.Log, f.closeLog = log, closeLog
		f.logFile = logging.TestFilePath(s.Config.LogsDir, s.pkg, t.Name())
	}
	f.result = s.Recorder.Begin(t.Name(), o.severity)
	t.Cleanup(f.finish)

	if !s.Selected(o.severity) {
		t.Skipf("severity %q not selected", o.severity)
	}
	return f
}

func (f *Fixture) bind(page browser.Page) {
	f.Page = page
	cfg, cat := f.suite.Config, f.suite.Catalog

	trace, err := browser.StartRecorder(f.ctx, cfg.Trace, cfg.TracesDir, f.T.Name())
	if err != nil {
		f.Log.Warn("tracing disabled", zap.Error(err))
	}
	f.trace = trace

	h := fnv.New64a()
	h.Write([]byte(f.T.Name()))
	seed := f.suite.seed ^ int64(h.Sum64())
	f.Rand = rand.New(rand.NewSource(seed))
	f.Log.Debug("fixture ready", zap.Int64("seed", seed))

	f.In = keywords.NewInteractor(page, f.Log, cfg.DefaultTimeout)
	f.Login = keywords.NewLoginPage(f.In, cat, cfg.BaseURL, cfg.LoginFailureShot)
	f.Shop = keywords.NewProductsPage(f.In, cat, cfg.BaseURL, f.Rand)
	f.Cart = keywords.NewCartPage(f.In, cat, cfg.BaseURL)
	f.Menu = keywords.NewBurgerMenu(f.In, cat, cfg.BaseURL)
}

// Must fails the test immediately when err is set. The error becomes the
// recorded failure message.
func (f *Fixture) Must(err error) {
	f.T.Helper()
	if err != nil {
		f.Fatal(err)
	}
}

// Check records err as a failure but lets the test continue.
func (f *Fixture) Check(err error) {
	f.T.Helper()
	if err != nil {
		f.note(err)
		f.T.Error(err)
	}
}

// Fatal fails the test with err.
func (f *Fixture) Fatal(err error) {
	f.T.Helper()
	f.note(err)
	f.T.Fatal(err)
}

func (f *Fixture) note(err error) {
	if f.failure == "" {
		f.failure = err.Error()
	}
	var assertion *keywords.AssertionError
	var precondition *keywords.PreconditionError
	switch {
	case errors.As(err, &assertion):
		f.Log.Error("assertion failed", zap.Error(err))
	case errors.As(err, &precondition):
		f.Log.Error("precondition not met", zap.Error(err))
	default:
		f.Log.Error("step failed", zap.Error(err))
	}
}

// Attach stores an extra artifact for this test.
func (f *Fixture) Attach(name string, kind report.Kind, data []byte) {
	report.Attach(f.Log, f.suite.sink, report.Artifact{Test: f.T.Name(), Name: name, Kind: kind, Data: data})
}

// ResetAppStateOnCleanup empties the cart through the menu when the test
// ends. The reset runs after failure evidence is captured and before the
// page is released, and only when the menu button is on screen. Failures
// are logged only.
func (f *Fixture) ResetAppStateOnCleanup() {
	f.reset = true
}

func (f *Fixture) resetAppState() {
	if !f.reset || f.Menu == nil {
		return
	}
	if !f.In.IsVisible(f.suite.Catalog.BurgerMenu.OpenButton) {
		f.Log.Info("reset app state skipped, menu not available", zap.String("url", f.Page.URL()))
		return
	}
	if err := f.Menu.ResetAppState(); err != nil {
		f.Log.Warn("reset app state failed", zap.Error(err))
	}
}

func (f *Fixture) finish() {
	if f.released {
		return
	}
	f.released = true

	name := f.T.Name()
	failed := f.T.Failed()
	sink := f.suite.sink

	if failed && f.Page != nil {
		arts, err := report.CaptureDiagnostics(f.Page, name)
		for _, a := range arts {
			report.Attach(f.Log, sink, a)
		}
		if err != nil {
			f.Log.Warn("incomplete failure diagnostics", zap.Error(err))
		}
	}

	if f.trace != nil {
		path, err := f.trace.Stop(failed)
		switch {
		case err != nil:
			f.Log.Warn("failed to stop trace", zap.Error(err))
		case path != "":
			f.Log.Info("trace kept", zap.String("path", path))
			report.AttachFile(f.Log, sink, name, report.NameTrace, report.KindZip, path)
		}
	}

	f.resetAppState()
	browser.Release(f.Log, "page", f.Page)
	browser.Release(f.Log, "context", f.ctx)

	verdict, message := services.VerdictPassed, ""
	switch {
	case failed:
		verdict, message = services.VerdictFailed, f.failure
		if message == "" {
			message = "test failed"
		}
	case f.T.Skipped():
		verdict, message = services.VerdictSkipped, "skipped"
	}
	f.suite.Recorder.End(f.result, verdict, message)

	if err := f.closeLog(); err != nil {
		f.suite.log.Warn("failed to close test log", zap.String("test", name), zap.Error(err))
	}
	if f.logFile != "" {
		report.AttachFile(f.suite.log, sink, name, report.NameLog, report.KindText, f.logFile)
	}
}

func noop() error { return nil }
