package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/themizzi/shopcheck/internal/browser"
)

// Harness defaults
const (
	DefaultBaseURL          = "https://www.saucedemo.com/"
	DefaultStandardUsername = "standard_user"
	DefaultPassword         = "secret_sauce"
	DefaultReportsDir       = "reports"
	DefaultCasesFile        = "testdata/login_test_data.csv"
	DefaultTimeoutMS        = 10000
	DefaultLogLevel         = "info"
)

// HarnessConfig holds everything a suite run needs to drive the storefront.
type HarnessConfig struct {
	BaseURL          string
	Username         string
	Password         string
	Headless         bool
	Browser          browser.Kind
	Trace            browser.TracePolicy
	ReportsDir       string
	TracesDir        string
	LogsDir          string
	ArtifactsDir     string
	LoginFailureShot string
	DefaultTimeout   time.Duration
	CasesFile        string
	Severities       []string
	LogLevel         string
}

// LoadHarnessConfig loads the harness configuration from environment
// variables. Every value has a default; malformed values are reported
// together.
func LoadHarnessConfig(getenv func(string) string) (*HarnessConfig, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	config := &HarnessConfig{
		BaseURL:    get("BASE_URL", DefaultBaseURL),
		Username:   get("STANDARD_USERNAME", DefaultStandardUsername),
		Password:   get("PASSWORD", DefaultPassword),
		ReportsDir: get("REPORTS_DIR", DefaultReportsDir),
		CasesFile:  get("LOGIN_CASES_FILE", DefaultCasesFile),
		LogLevel:   strings.ToLower(get("LOG_LEVEL", DefaultLogLevel)),
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}
	config.TracesDir = get("TRACES_DIR", filepath.Join(config.ReportsDir, "playwright-traces"))
	config.LogsDir = get("LOGS_DIR", filepath.Join(config.ReportsDir, "logs"))
	config.ArtifactsDir = get("ARTIFACTS_DIR", filepath.Join(config.ReportsDir, "artifacts"))
	config.LoginFailureShot = get("LOGIN_FAILURE_SCREENSHOT", filepath.Join(config.ReportsDir, "login_failure.png"))

	headless, err := strconv.ParseBool(get("HEADLESS", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("HEADLESS: %w", err))
	}
	config.Headless = headless

	if config.Browser, err = browser.ParseKind(getenv("BROWSER")); err != nil {
		errs = append(errs, fmt.Errorf("BROWSER: %w", err))
	}
	if config.Trace, err = browser.ParseTracePolicy(getenv("PW_TRACE")); err != nil {
		errs = append(errs, fmt.Errorf("PW_TRACE: %w", err))
	}

	ms, err := strconv.Atoi(get("DEFAULT_TIMEOUT_MS", strconv.Itoa(DefaultTimeoutMS)))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEOUT_MS: %w", err))
	case ms <= 0:
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEOUT_MS must be positive, got %d", ms))
	}
	config.DefaultTimeout = time.Duration(ms) * time.Millisecond

	for _, s := range strings.Split(getenv("SEVERITIES"), ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			config.Severities = append(config.Severities, s)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return config, nil
}

// URL joins path onto the base URL.
func (c *HarnessConfig) URL(path string) string {
	return c.BaseURL + strings.TrimLeft(path, "/")
}
