package report

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/models"
	"github.com/themizzi/shopcheck/internal/services"
)

// Recorder keeps the verdict of every test in a run. With a result service
// the verdicts are also persisted; persistence failures are logged and never
// fail a test.
type Recorder struct {
	svc services.ResultService
	log *zap.Logger

	mu      sync.Mutex
	run     *models.TestRun
	results []*models.CaseResult
}

// NewRecorder starts a run for baseURL. svc may be nil.
func NewRecorder(svc services.ResultService, baseURL string, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{svc: svc, log: log}

	var err error
	if svc != nil {
		r.run, err = svc.StartRun(baseURL)
	} else {
		r.run, err = models.NewTestRun(baseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	log.Info("run started", zap.String("run_id", r.run.ID), zap.String("base_url", baseURL), zap.Bool("persisted", svc != nil))
	return r, nil
}

// Run returns the run being recorded.
func (r *Recorder) Run() *models.TestRun {
	return r.run
}

// Begin opens a pending result for test.
func (r *Recorder) Begin(test, severity string) *models.CaseResult {
	var (
		res *models.CaseResult
		err error
	)
	if r.svc != nil {
		res, err = r.svc.StartCase(r.run.ID, test, severity)
		if err != nil {
			r.log.Warn("failed to persist case start", zap.String("test", test), zap.Error(err))
		}
	}
	if res == nil {
		if res, err = models.NewCaseResult(r.run.ID, test, severity); err != nil {
			r.log.Warn("invalid case result", zap.String("test", test), zap.Error(err))
			return nil
		}
	}

	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	return res
}

// End settles res with verdict.
func (r *Recorder) End(res *models.CaseResult, verdict services.Verdict, message string) {
	if res == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.svc != nil {
		err = r.svc.RecordVerdict(res, verdict, message)
	} else {
		switch verdict {
		case services.VerdictPassed:
			err = res.Pass()
		case services.VerdictSkipped:
			err = res.Skip(message)
		default:
			err = res.Fail(message)
		}
	}
	if err != nil {
		r.log.Warn("failed to record verdict", zap.String("test", res.Name), zap.String("verdict", string(verdict)), zap.Error(err))
		return
	}
	r.log.Info("verdict", zap.String("test", res.Name), zap.String("status", string(res.Status)), zap.String("duration", res.GetFormattedDuration()))
}

// Results returns a snapshot of the recorded results.
func (r *Recorder) Results() []*models.CaseResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.results)
}

// Finish closes the run. Results still pending count as failed.
func (r *Recorder) Finish() error {
	for _, res := range r.Results() {
		if res.IsPending() {
			r.End(res, services.VerdictFailed, "test did not report a verdict")
		}
	}

	results := r.Results()
	var err error
	if r.svc != nil {
		err = r.svc.FinishRun(r.run, results)
	} else {
		err = r.run.Finish(results)
	}
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	r.log.Info("run finished", zap.String("run_id", r.run.ID), zap.String("status", string(r.run.Status)), zap.Int("results", len(results)))
	return nil
}
