package browser

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoLogin is returned when a session is requested without a login routine.
var ErrNoLogin = errors.New("no login routine provided")

// Manager is the run-scoped owner of the browser engine.
type Manager struct {
	engine        Engine
	headless      bool
	actionTimeout time.Duration
	sessions      *SessionStore
	log           *zap.Logger
}

// ManagerOptions configures a Manager around an already launched engine.
type ManagerOptions struct {
	Headless      bool
	ActionTimeout time.Duration
	Logger        *zap.Logger
}

// NewManager wraps engine.
func NewManager(engine Engine, opts ManagerOptions) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		engine:        engine,
		headless:      opts.Headless,
		actionTimeout: opts.ActionTimeout,
		sessions:      NewSessionStore(),
		log:           log,
	}
}

// Launch starts one engine for the whole run. A launch failure is fatal for
// the run.
func Launch(launch Launcher, opts LaunchOptions, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	engine, err := launch(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	log.Info("browser launched",
		zap.String("browser", string(opts.Kind)),
		zap.Bool("headless", opts.Headless),
		zap.Stringer("viewport", ViewportFor(opts.Headless)),
	)
	return NewManager(engine, ManagerOptions{Headless: opts.Headless, Logger: log}), nil
}

// SetActionTimeout changes the driver timeout for contexts created later.
func (m *Manager) SetActionTimeout(d time.Duration) {
	m.actionTimeout = d
}

// Headless reports the launch mode.
func (m *Manager) Headless() bool {
	return m.headless
}

// NewContext creates an isolated context. The viewport follows the launch
// mode unless opts sets one.
func (m *Manager) NewContext(opts ContextOptions) (Context, error) {
	if opts.Viewport == nil {
		vp := ViewportFor(m.headless)
		opts.Viewport = &vp
	}
	if opts.ActionTimeout == 0 {
		opts.ActionTimeout = m.actionTimeout
	}
	ctx, err := m.engine.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	return ctx, nil
}

// EstablishAuthenticatedState logs in once in a scratch context and saves the
// storage state to path. Later and concurrent callers for the same path get
// the same artifact without logging in again.
func (m *Manager) EstablishAuthenticatedState(path string, login func(Page) error) (SessionArtifact, error) {
	if login == nil {
		return SessionArtifact{}, ErrNoLogin
	}
	return m.sessions.Get(path, func() error {
		m.log.Info("establishing authenticated session", zap.String("path", path))

		ctx, err := m.NewContext(ContextOptions{})
		if err != nil {
			return err
		}
		defer Release(m.log, "session context", ctx)

		page, err := ctx.NewPage()
		if err != nil {
			return fmt.Errorf("failed to open session page: %w", err)
		}
		defer Release(m.log, "session page", page)

		if err := login(page); err != nil {
			return fmt.Errorf("session login failed: %w", err)
		}
		if err := ctx.SaveStorageState(path); err != nil {
			return fmt.Errorf("failed to save session state: %w", err)
		}
		return nil
	})
}

// NewAuthenticatedPage opens a context seeded from the session artifact and
// navigates to landingURL, waiting for the network to go quiet. The context
// is closed again if navigation fails.
func (m *Manager) NewAuthenticatedPage(artifact SessionArtifact, landingURL string) (Context, Page, error) {
	ctx, err := m.NewContext(ContextOptions{StorageStatePath: artifact.Path})
	if err != nil {
		return nil, nil, err
	}

	page, err := ctx.NewPage()
	if err != nil {
		Release(m.log, "context", ctx)
		return nil, nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.Goto(landingURL, LoadNetworkIdle); err != nil {
		Release(m.log, "page", page)
		Release(m.log, "context", ctx)
		return nil, nil, fmt.Errorf("failed to open %s: %w", landingURL, err)
	}
	return ctx, page, nil
}

// Close shuts the engine down.
func (m *Manager) Close() error {
	m.log.Info("closing browser")
	return m.engine.Close()
}
