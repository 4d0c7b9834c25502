package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/cases"
	internalcli "github.com/themizzi/shopcheck/internal/cli"
	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/database"
	"github.com/themizzi/shopcheck/internal/handlers"
	"github.com/themizzi/shopcheck/internal/keywords"
	"github.com/themizzi/shopcheck/internal/locators"
	"github.com/themizzi/shopcheck/internal/logging"
	"github.com/themizzi/shopcheck/internal/report"
	"github.com/themizzi/shopcheck/internal/repository"
	"github.com/themizzi/shopcheck/internal/services"
)

func newLogger(c *cli.Context) (*zap.Logger, error) {
	return logging.New(c.String("log-level"))
}

// CasesCommand returns the cases command
func CasesCommand() *cli.Command {
	return &cli.Command{
		Name:  "cases",
		Usage: "Validate and list the login cases",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "CSV case file", EnvVars: []string{"LOGIN_CASES_FILE"}, Value: config.DefaultCasesFile},
			&cli.StringSliceFlag{Name: "severity", Usage: "only cases of this severity (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			cs, err := cases.Load(c.String("file"))
			if err != nil {
				return err
			}
			cs = cases.Filter(cs, c.StringSlice("severity")...)
			return printCases(c.App.Writer, cs)
		},
	}
}

func printCases(w io.Writer, cs []cases.Case) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tUSERNAME\tPASSWORD\tOUTCOME\tSEVERITY")
	for _, c := range cs {
		outcome := c.Outcome.Kind.String()
		if c.Outcome.Kind == cases.Invalid {
			outcome += ": " + c.Outcome.Message
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Label, c.Username, keywords.RedactSecret(c.Password), outcome, c.Severity)
	}
	fmt.Fprintf(tw, "%d cases\n", len(cs))
	return tw.Flush()
}

// harness launches the configured browser for one-off commands
type harness struct {
	cfg *config.HarnessConfig
	mgr *browser.Manager
	log *zap.Logger
}

func openHarness(c *cli.Context) (*harness, error) {
	log, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadHarnessConfig(os.Getenv)
	if err != nil {
		return nil, err
	}
	mgr, err := browser.Launch(browser.PlaywrightLauncher, browser.LaunchOptions{Kind: cfg.Browser, Headless: cfg.Headless}, log)
	if err != nil {
		return nil, err
	}
	mgr.SetActionTimeout(cfg.DefaultTimeout)
	return &harness{cfg: cfg, mgr: mgr, log: log}, nil
}

func (h *harness) close() {
	browser.Release(h.log, "browser", h.mgr)
	_ = h.log.Sync()
}

func (h *harness) login(page browser.Page, username, password string, outcome cases.Outcome) (bool, error) {
	in := keywords.NewInteractor(page, h.log, h.cfg.DefaultTimeout)
	return keywords.NewLoginPage(in, locators.Default(), h.cfg.BaseURL, h.cfg.LoginFailureShot).Login(username, password, outcome)
}

// LoginCommand returns the login command
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in once and check the outcome",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", EnvVars: []string{"STANDARD_USERNAME"}, Value: config.DefaultStandardUsername},
			&cli.StringFlag{Name: "password", EnvVars: []string{"PASSWORD"}, Value: config.DefaultPassword},
			&cli.BoolFlag{Name: "valid", Usage: "expect to reach the inventory"},
			&cli.StringFlag{Name: "error", Usage: "expect this sign-in error message"},
		},
		Action: func(c *cli.Context) error {
			outcome := cases.ExpectNothing()
			switch {
			case c.IsSet("error") && c.Bool("valid"):
				return errors.New("--valid and --error are mutually exclusive")
			case c.IsSet("error"):
				outcome = cases.ExpectInvalid(c.String("error"))
			case c.Bool("valid"):
				outcome = cases.ExpectValid()
			}

			h, err := openHarness(c)
			if err != nil {
				return err
			}
			defer h.close()

			ctx, err := h.mgr.NewContext(browser.ContextOptions{})
			if err != nil {
				return err
			}
			defer browser.Release(h.log, "context", ctx)
			page, err := ctx.NewPage()
			if err != nil {
				return fmt.Errorf("failed to open page: %w", err)
			}
			defer browser.Release(h.log, "page", page)

			ok, err := h.login(page, c.String("username"), c.String("password"), outcome)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "outcome %s ok, logged in: %t, url: %s\n", outcome.Kind, ok, page.URL())
			return nil
		},
	}
}

// SessionCommand returns the session command
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Sign in as the standard user and save the storage state",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "storage state file", Value: filepath.Join(config.DefaultReportsDir, "auth.json")},
		},
		Action: func(c *cli.Context) error {
			h, err := openHarness(c)
			if err != nil {
				return err
			}
			defer h.close()

			out := c.String("out")
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			artifact, err := h.mgr.EstablishAuthenticatedState(out, func(page browser.Page) error {
				_, err := h.login(page, h.cfg.Username, h.cfg.Password, cases.ExpectValid())
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "session saved to %s\n", artifact.Path)
			return nil
		},
	}
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Browse recorded runs and their artifacts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "templates", Value: "templates", Usage: "template directory"},
		},
		Action: func(c *cli.Context) error {
			log, err := newLogger(c)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg := config.LoadServerConfig(os.Getenv)
			store := report.NewManifestStore(cfg.ArtifactsDir)

			var runs handlers.RunSource = store
			if config.PostgresConfigured(os.Getenv) {
				if err := database.Connect(os.Getenv); err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer database.Close()
				if err := database.RunMigrations(database.DB); err != nil {
					return fmt.Errorf("failed to run database migrations: %w", err)
				}
				runs = services.NewResultService(repository.NewResultRepository())
				log.Info("serving runs from database")
			} else {
				log.Info("serving runs from disk", zap.String("dir", cfg.ArtifactsDir))
			}

			dir := c.String("templates")
			runsHandler, err := handlers.NewRunsHandler(filepath.Join(dir, "runs.html"), runs, log)
			if err != nil {
				return fmt.Errorf("failed to create runs handler: %w", err)
			}
			runHandler, err := handlers.NewRunHandler(filepath.Join(dir, "run.html"), runs, store, log)
			if err != nil {
				return fmt.Errorf("failed to create run handler: %w", err)
			}

			return internalcli.RunServe(internalcli.ServerDependencies{
				ServerConfig:    cfg,
				RunsHandler:     runsHandler,
				RunHandler:      runHandler,
				ArtifactHandler: handlers.NewArtifactHandler(store, log),
				Logger:          log,
			})
		},
	}
}

func withDatabase(action func(c *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := database.Connect(os.Getenv); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		return action(c)
	}
}

// DBCommand returns the db command group
func DBCommand() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Results database utilities",
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Create the results tables",
				Action: withDatabase(func(c *cli.Context) error {
					if err := database.RunMigrations(database.DB); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "migrations applied")
					return nil
				}),
			},
			{
				Name:      "exec",
				Usage:     "Run a SQL script statement by statement",
				ArgsUsage: "<script.sql>",
				Action: withDatabase(func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("exactly one script file is required")
					}
					script, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					n, err := database.ExecScript(database.DB, string(script))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%d statements executed\n", n)
					return nil
				}),
			},
			{
				Name:      "query",
				Usage:     "Print the rows of a query as JSON lines",
				ArgsUsage: "<sql>",
				Action: withDatabase(func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("exactly one query is required")
					}
					rows, err := database.SelectMaps(database.DB, c.Args().First())
					if err != nil {
						return err
					}
					enc := json.NewEncoder(c.App.Writer)
					for _, row := range rows {
						if err := enc.Encode(row); err != nil {
							return err
						}
					}
					return nil
				}),
			},
		},
	}
}
