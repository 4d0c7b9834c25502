package services

import (
	"fmt"

	"github.com/themizzi/shopcheck/internal/models"
)

// DefaultRunLimit caps run listings when the caller does not.
const DefaultRunLimit = 50

// ResultRepository defines the interface for run and result persistence
type ResultRepository interface {
	CreateRun(run *models.TestRun) error
	FinishRun(run *models.TestRun) error
	GetRun(id string) (*models.TestRun, error)
	ListRuns(limit int) ([]*models.TestRun, error)
	SaveResult(res *models.CaseResult) error
	ListResults(runID string) ([]*models.CaseResult, error)
}

// Verdict is how a test ended.
type Verdict string

// Verdicts
const (
	VerdictPassed  Verdict = "passed"
	VerdictFailed  Verdict = "failed"
	VerdictSkipped Verdict = "skipped"
)

// ResultService handles run and result business logic
type ResultService interface {
	StartRun(baseURL string) (*models.TestRun, error)
	StartCase(runID, name, severity string) (*models.CaseResult, error)
	RecordVerdict(res *models.CaseResult, verdict Verdict, message string) error
	FinishRun(run *models.TestRun, results []*models.CaseResult) error
	ListRuns(limit int) ([]*models.TestRun, error)
	GetRun(id string) (*models.TestRun, []*models.CaseResult, error)
}

// ResultServiceImpl implements ResultService
type ResultServiceImpl struct {
	repo ResultRepository
}

// NewResultService creates a new result service
func NewResultService(repo ResultRepository) ResultService {
	return &ResultServiceImpl{
		repo: repo,
	}
}

// StartRun creates and stores a running run
func (s *ResultServiceImpl) StartRun(baseURL string) (*models.TestRun, error) {
	run, err := models.NewTestRun(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid run: %w", err)
	}
	if err := s.repo.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// StartCase stores a pending result for a test
func (s *ResultServiceImpl) StartCase(runID, name, severity string) (*models.CaseResult, error) {
	res, err := models.NewCaseResult(runID, name, severity)
	if err != nil {
		return nil, fmt.Errorf("invalid case result: %w", err)
	}
	if err := s.repo.SaveResult(res); err != nil {
		return nil, fmt.Errorf("failed to save case result: %w", err)
	}
	return res, nil
}

// RecordVerdict settles a pending result and stores it
func (s *ResultServiceImpl) RecordVerdict(res *models.CaseResult, verdict Verdict, message string) error {
	// Use domain methods to transition state
	var err error
	switch verdict {
	case VerdictPassed:
		err = res.Pass()
	case VerdictFailed:
		err = res.Fail(message)
	case VerdictSkipped:
		err = res.Skip(message)
	default:
		return fmt.Errorf("invalid verdict: %s", verdict)
	}
	if err != nil {
		return err
	}

	if err := s.repo.SaveResult(res); err != nil {
		return fmt.Errorf("failed to save case result: %w", err)
	}
	return nil
}

// FinishRun closes the run from its results and stores it
func (s *ResultServiceImpl) FinishRun(run *models.TestRun, results []*models.CaseResult) error {
	if err := run.Finish(results); err != nil {
		return err
	}
	if err := s.repo.FinishRun(run); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs, newest first
func (s *ResultServiceImpl) ListRuns(limit int) ([]*models.TestRun, error) {
	if limit <= 0 || limit > DefaultRunLimit {
		limit = DefaultRunLimit
	}
	runs, err := s.repo.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run and its results
func (s *ResultServiceImpl) GetRun(id string) (*models.TestRun, []*models.CaseResult, error) {
	run, err := s.repo.GetRun(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run: %w", err)
	}
	results, err := s.repo.ListResults(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get results: %w", err)
	}
	return run, results, nil
}
