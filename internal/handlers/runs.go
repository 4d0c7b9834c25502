package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/themizzi/shopcheck/internal/models"
	"github.com/themizzi/shopcheck/internal/report"
	"github.com/themizzi/shopcheck/internal/repository"
)

// RunSource lists recorded runs. Both the results database service and the
// on-disk manifest store satisfy it.
type RunSource interface {
	ListRuns(limit int) ([]*models.TestRun, error)
	GetRun(id string) (*models.TestRun, []*models.CaseResult, error)
}

// ArtifactSource lists and resolves the stored artifacts of a run.
type ArtifactSource interface {
	Artifacts(runID string) ([]report.Entry, error)
	ArtifactPath(runID, rel string) (report.Entry, string, error)
}

// RunView is a run as rendered in pages and JSON.
type RunView struct {
	ID         string           `json:"id"`
	BaseURL    string           `json:"base_url"`
	Status     models.RunStatus `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Duration   string           `json:"duration"`
}

// ResultView is a case result with the artifacts attached to its test.
type ResultView struct {
	Name      string              `json:"name"`
	Severity  string              `json:"severity"`
	Status    models.ResultStatus `json:"status"`
	Message   string              `json:"message,omitempty"`
	Duration  string              `json:"duration"`
	Artifacts []report.Entry      `json:"artifacts,omitempty"`
}

// RunData represents the data for the run detail template
type RunData struct {
	Run          RunView        `json:"run"`
	Results      []ResultView   `json:"results"`
	RunArtifacts []report.Entry `json:"run_artifacts,omitempty"`
	Passed       int            `json:"passed"`
	Failed       int            `json:"failed"`
	Skipped      int            `json:"skipped"`
}

func newRunView(r *models.TestRun) RunView {
	v := RunView{
		ID:         r.ID,
		BaseURL:    r.BaseURL,
		Status:     r.Status,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if !r.FinishedAt.IsZero() {
		v.Duration = r.Duration().Round(time.Millisecond).String()
	}
	return v
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json" || r.Header.Get("Accept") == "application/json"
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, report.ErrRunNotFound) || errors.Is(err, repository.ErrRunNotFound)
}

// RunsHandler lists recent runs
type RunsHandler struct {
	template *template.Template
	runs     RunSource
	log      *zap.Logger
}

// NewRunsHandler creates a new RunsHandler
func NewRunsHandler(templatePath string, runs RunSource, log *zap.Logger) (*RunsHandler, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RunsHandler{template: tmpl, runs: runs, log: log}, nil
}

// ServeHTTP handles GET /, optionally limited by ?limit=N
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(limit)
	if err != nil {
		h.log.Error("failed to list runs", zap.Error(err))
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRunView(run))
	}

	if wantsJSON(r) {
		writeJSON(w, h.log, views)
		return
	}
	if err := h.template.Execute(w, views); err != nil {
		h.log.Error("failed to render template", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// RunHandler shows one run's results and artifacts
type RunHandler struct {
	template  *template.Template
	runs      RunSource
	artifacts ArtifactSource
	log       *zap.Logger
}

// NewRunHandler creates a new RunHandler. artifacts may be nil.
func NewRunHandler(templatePath string, runs RunSource, artifacts ArtifactSource, log *zap.Logger) (*RunHandler, error) {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RunHandler{template: tmpl, runs: runs, artifacts: artifacts, log: log}, nil
}

// ServeHTTP handles GET /runs/{id}
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Missing run id", http.StatusBadRequest)
		return
	}

	run, results, err := h.runs.GetRun(id)
	if isNotFound(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("failed to get run", zap.String("run_id", id), zap.Error(err))
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	byTest := map[string][]report.Entry{}
	if h.artifacts != nil {
		entries, err := h.artifacts.Artifacts(id)
		if err != nil && !isNotFound(err) {
			h.log.Warn("failed to list artifacts", zap.String("run_id", id), zap.Error(err))
		}
		for _, e := range entries {
			byTest[e.Test] = append(byTest[e.Test], e)
		}
	}

	data := RunData{Run: newRunView(run), RunArtifacts: byTest[""]}
	for _, res := range results {
		data.Results = append(data.Results, ResultView{
			Name:      res.Name,
			Severity:  res.Severity,
			Status:    res.Status,
			Message:   res.Message,
			Duration:  res.GetFormattedDuration(),
			Artifacts: byTest[res.Name],
		})
		switch res.Status {
		case models.ResultStatusPassed:
			data.Passed++
		case models.ResultStatusFailed:
			data.Failed++
		case models.ResultStatusSkipped:
			data.Skipped++
		}
	}

	if wantsJSON(r) {
		writeJSON(w, h.log, data)
		return
	}
	if err := h.template.Execute(w, data); err != nil {
		h.log.Error("failed to render template", zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
