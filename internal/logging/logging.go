// Package logging builds the harness's zap loggers: one console logger for
// the run and a per-test file tee so every test leaves its own log behind.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/themizzi/shopcheck/internal/browser"
)

// ParseLevel accepts zap level names case-insensitively. Blank means info.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// New returns a console logger on stderr.
func New(level string) (*zap.Logger, error) {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter returns a console logger writing to w.
func NewWithWriter(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core, zap.AddCaller()), nil
}

// TestFilePath is where the log of test in package pkg is written.
func TestFilePath(dir, pkg, test string) string {
	return filepath.Join(dir, browser.SafeName(pkg), browser.SafeName(test)+".log")
}

// ForTest tees base into TestFilePath(dir, pkg, test). An earlier log of the
// same test is overwritten. The returned func syncs and closes the file.
func ForTest(base *zap.Logger, dir, pkg, test string) (*zap.Logger, func() error, error) {
	path := TestFilePath(dir, pkg, test)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return base, noop, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return base, noop, fmt.Errorf("failed to create test log: %w", err)
	}

	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(f), base.Level())
	log := base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})).With(zap.String("test", test))

	closeFn := func() error {
		_ = log.Sync()
		return f.Close()
	}
	return log, closeFn, nil
}

func noop() error { return nil }
