// Package suite wires the run-scoped pieces of a browser test run together:
// configuration, the browser engine, the authenticated session, artifact
// sinks and verdict recording. Tests get per-test fixtures from it whose
// teardown is registered with t.Cleanup.
package suite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/cases"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/database"
	"github.com/themizzi/shopcheck/internal/keywords"
	"github.com/themizzi/shopcheck/internal/locators"
	"github.com/themizzi/shopcheck/internal/logging"
	"github.com/themizzi/shopcheck/internal/report"
	"github.com/themizzi/shopcheck/internal/repository"
	"github.com/themizzi/shopcheck/internal/services"
)

// SessionFile is the storage state file name inside the run's temp dir.
const SessionFile = "auth.json"

// Options tune Setup. Zero values pick the production wiring.
type Options struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Launcher defaults to the playwright-go launcher.
	Launcher browser.Launcher
	// Logger defaults to a console logger at LOG_LEVEL.
	Logger *zap.Logger
	// Package names the per-test log subdirectory.
	Package string
	// Results overrides the result service. When nil a Postgres-backed
	// service is used if POSTGRES_HOSTNAME is set.
	Results services.ResultService
	// Seed for random product and form data. Zero uses the clock.
	Seed int64
}

// Suite is the run-scoped fixture.
type Suite struct {
	Config   *config.HarnessConfig
	Catalog  *locators.Catalog
	Manager  *browser.Manager
	Recorder *report.Recorder

	files  *report.FileSink
	sink   report.Sink
	log    *zap.Logger
	pkg    string
	tmpDir string
	db     *sql.DB
	seed   int64
}

// Setup loads configuration and launches the browser. Any failure here
// aborts the whole run.
func Setup(opts Options) (*Suite, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg, err := config.LoadHarnessConfig(getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid harness configuration: %w", err)
	}

	log := opts.Logger
	if log == nil {
		if log, err = logging.New(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	s := &Suite{
		Config:  cfg,
		Catalog: locators.Default(),
		log:     log,
		pkg:     opts.Package,
		seed:    opts.Seed,
	}
	if s.pkg == "" {
		s.pkg = "e2e"
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}

	svc := opts.Results
	if svc == nil && config.PostgresConfigured(getenv) {
		svc = s.openResultService(getenv)
	}

	if s.Recorder, err = report.NewRecorder(svc, cfg.BaseURL, log); err != nil {
		s.closeDB()
		return nil, err
	}
	if s.files, err = report.NewFileSink(cfg.ArtifactsDir, s.Recorder.Run().ID); err != nil {
		s.closeDB()
		return nil, err
	}
	s.sink = s.files
	if err := s.files.WriteEnvironment(s.environment()); err != nil {
		log.Warn("failed to write environment properties", zap.Error(err))
	}
	for _, dir := range []string{cfg.TracesDir, cfg.LogsDir, filepath.Dir(cfg.LoginFailureShot)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.closeDB()
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if s.tmpDir, err = os.MkdirTemp("", "shopcheck-"); err != nil {
		s.closeDB()
		return nil, fmt.Errorf("failed to create run temp dir: %w", err)
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = browser.PlaywrightLauncher
	}
	s.Manager, err = browser.Launch(launcher, browser.LaunchOptions{Kind: cfg.Browser, Headless: cfg.Headless}, log)
	if err != nil {
		os.RemoveAll(s.tmpDir)
		s.closeDB()
		return nil, err
	}
	s.Manager.SetActionTimeout(cfg.DefaultTimeout)

	log.Info("suite ready",
		zap.String("run_id", s.Recorder.Run().ID),
		zap.String("artifacts", s.files.Dir()),
		zap.Int64("seed", s.seed),
		zap.Strings("severities", cfg.Severities),
	)
	return s, nil
}

func (s *Suite) openResultService(getenv func(string) string) services.ResultService {
	pg, err := config.LoadPostgresConfig(getenv)
	if err != nil {
		s.log.Warn("results database disabled", zap.Error(err))
		return nil
	}
	db, err := database.Open(pg)
	if err != nil {
		s.log.Warn("results database disabled", zap.Error(err))
		return nil
	}
	if err := database.RunMigrations(db); err != nil {
		s.log.Warn("results database disabled", zap.Error(err))
		db.Close()
		return nil
	}
	s.db = db
	s.log.Info("recording results to database", zap.String("host", pg.Host), zap.String("database", pg.Database))
	return services.NewResultService(repository.NewResultRepositoryWithDB(db))
}

func (s *Suite) closeDB() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		s.log.Warn("failed to close results database", zap.Error(err))
	}
	s.db = nil
}

func (s *Suite) environment() map[string]string {
	return map[string]string{
		"base_url": s.Config.BaseURL,
		"browser":  string(s.Config.Browser),
		"headless": strconv.FormatBool(s.Config.Headless),
		"trace":    s.Config.Trace.String(),
		"viewport": browser.ViewportFor(s.Config.Headless).String(),
		"run_id":   s.Recorder.Run().ID,
		"seed":     strconv.FormatInt(s.seed, 10),
	}
}

// Log is the run logger.
func (s *Suite) Log() *zap.Logger {
	return s.log
}

// Sink is where per-test artifacts go.
func (s *Suite) Sink() report.Sink {
	return s.sink
}

// Selected reports whether tests of this severity run. No configured
// severities selects everything.
func (s *Suite) Selected(severity string) bool {
	return len(s.Config.Severities) == 0 || slices.Contains(s.Config.Severities, severity)
}

// LoginCases loads the credential cases and filters them by the configured
// severities. A malformed file is a *cases.ParseError.
func (s *Suite) LoginCases() ([]cases.Case, error) {
	cs, err := cases.Load(s.Config.CasesFile)
	if err != nil {
		return nil, err
	}
	return cases.Filter(cs, s.Config.Severities...), nil
}

// Session returns the run's authenticated storage state, logging in with
// the standard user the first time it is asked for.
func (s *Suite) Session() (browser.SessionArtifact, error) {
	path := filepath.Join(s.tmpDir, SessionFile)
	return s.Manager.EstablishAuthenticatedState(path, func(page browser.Page) error {
		in := keywords.NewInteractor(page, s.log, s.Config.DefaultTimeout)
		login := keywords.NewLoginPage(in, s.Catalog, s.Config.BaseURL, s.Config.LoginFailureShot)
		_, err := login.Login(s.Config.Username, s.Config.Password, cases.ExpectValid())
		return err
	})
}

// Teardown closes the run: verdicts, manifest, browser, temp dir and the
// results database. Every step runs; failures are joined.
func (s *Suite) Teardown() error {
	var errs []error
	if err := s.Recorder.Finish(); err != nil {
		errs = append(errs, err)
	}
	if err := s.files.WriteManifest(s.Recorder.Run(), s.Recorder.Results()); err != nil {
		errs = append(errs, err)
	}
	if err := browser.Close("browser", s.Manager); err != nil {
		errs = append(errs, err)
	}
	if err := os.RemoveAll(s.tmpDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove run temp dir: %w", err))
	}
	s.closeDB()

	err := errors.Join(errs...)
	if err == nil {
		s.log.Info("run complete",
			zap.String("run_id", s.Recorder.Run().ID),
			zap.String("status", string(s.Recorder.Run().Status)),
			zap.String("artifacts", s.files.Dir()),
		)
	}
	_ = s.log.Sync()
	return err
}
