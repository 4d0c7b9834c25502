package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents valid test run states
type RunStatus string

// Run statuses
const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
)

// ResultStatus represents valid case result states
type ResultStatus string

// Result statuses
const (
	ResultStatusPending ResultStatus = "pending"
	ResultStatusPassed  ResultStatus = "passed"
	ResultStatusFailed  ResultStatus = "failed"
	ResultStatusSkipped ResultStatus = "skipped"
)

// TestRun is one execution of the suite against a base URL.
type TestRun struct {
	ID         string
	BaseURL    string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
}

// CaseResult is the verdict of one test within a run.
type CaseResult struct {
	ID         string
	RunID      string
	Name       string
	Severity   string
	Status     ResultStatus
	Message    string
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

// Domain errors
var (
	ErrInvalidBaseURL          = errors.New("run base URL cannot be empty")
	ErrInvalidRunID            = errors.New("run ID cannot be empty")
	ErrInvalidCaseName         = errors.New("case name cannot be empty")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrRunAlreadyFinished      = errors.New("run is already finished")
)

// DefaultSeverity is used when a case does not declare one.
const DefaultSeverity = "minor"

// NewTestRun creates a running test run
func NewTestRun(baseURL string) (*TestRun, error) {
	if baseURL == "" {
		return nil, ErrInvalidBaseURL
	}
	return &TestRun{
		ID:        uuid.New().String(),
		BaseURL:   baseURL,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}, nil
}

// Finish closes the run. The run fails if any result failed.
func (r *TestRun) Finish(results []*CaseResult) error {
	if r.Status != RunStatusRunning {
		return fmt.Errorf("%w: status %s", ErrRunAlreadyFinished, r.Status)
	}
	r.Status = RunStatusPassed
	for _, res := range results {
		if res.IsFailed() {
			r.Status = RunStatusFailed
			break
		}
	}
	r.FinishedAt = time.Now()
	return nil
}

// Duration returns how long the run took, or has taken so far.
func (r *TestRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewCaseResult creates a pending result for a test
func NewCaseResult(runID, name, severity string) (*CaseResult, error) {
	if runID == "" {
		return nil, ErrInvalidRunID
	}
	if name == "" {
		return nil, ErrInvalidCaseName
	}
	if severity == "" {
		severity = DefaultSeverity
	}
	return &CaseResult{
		ID:        uuid.New().String(),
		RunID:     runID,
		Name:      name,
		Severity:  severity,
		Status:    ResultStatusPending,
		StartedAt: time.Now(),
	}, nil
}

func (c *CaseResult) settle(status ResultStatus, message string) error {
	if c.Status != ResultStatusPending {
		return fmt.Errorf("%w: cannot move result with status %s to %s", ErrInvalidStatusTransition, c.Status, status)
	}
	c.Status = status
	c.Message = message
	c.FinishedAt = time.Now()
	c.Duration = c.FinishedAt.Sub(c.StartedAt)
	return nil
}

// Pass marks the result as passed
func (c *CaseResult) Pass() error {
	return c.settle(ResultStatusPassed, "")
}

// Fail marks the result as failed with a reason
func (c *CaseResult) Fail(message string) error {
	return c.settle(ResultStatusFailed, message)
}

// Skip marks the result as skipped
func (c *CaseResult) Skip(message string) error {
	return c.settle(ResultStatusSkipped, message)
}

// IsPending returns true if no verdict has been recorded
func (c *CaseResult) IsPending() bool {
	return c.Status == ResultStatusPending
}

// IsFailed returns true if the case failed
func (c *CaseResult) IsFailed() bool {
	return c.Status == ResultStatusFailed
}

// GetFormattedDuration returns the duration rounded for display
func (c *CaseResult) GetFormattedDuration() string {
	return c.Duration.Round(time.Millisecond).String()
}
