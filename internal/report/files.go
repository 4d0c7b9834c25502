package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/themizzi/shopcheck/internal/browser"
	"github.com/themizzi/shopcheck/internal/models"
)

// Files written at the top of a run directory.
const (
	ManifestFile    = "manifest.json"
	EnvironmentFile = "environment.json"
)

// ErrRunNotFound is returned for a run directory without a manifest.
var ErrRunNotFound = errors.New("run not found")

// Entry describes one stored artifact. Path is relative to the run
// directory and always uses forward slashes.
type Entry struct {
	Test    string    `json:"test"`
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	Path    string    `json:"path"`
	Size    int       `json:"size"`
	Created time.Time `json:"created"`
}

// RunRecord is the manifest form of a test run.
type RunRecord struct {
	ID         string           `json:"id"`
	BaseURL    string           `json:"base_url"`
	Status     models.RunStatus `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// ResultRecord is the manifest form of a case result.
type ResultRecord struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Severity   string              `json:"severity"`
	Status     models.ResultStatus `json:"status"`
	Message    string              `json:"message,omitempty"`
	DurationMS int64               `json:"duration_ms"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Manifest is everything a run directory records about the run.
type Manifest struct {
	Run       RunRecord      `json:"run"`
	Results   []ResultRecord `json:"results"`
	Artifacts []Entry        `json:"artifacts"`
}

// FileSink stores artifacts under <root>/<run id>/<test>/<name><ext>.
type FileSink struct {
	dir string

	mu      sync.Mutex
	entries []Entry
}

// NewFileSink creates the run directory.
func NewFileSink(root, runID string) (*FileSink, error) {
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Dir is the run directory.
func (s *FileSink) Dir() string {
	return s.dir
}

// Attach writes a to disk and remembers it for the manifest. Attaching the
// same name twice for a test replaces the earlier file.
func (s *FileSink) Attach(a Artifact) error {
	if a.Name == "" {
		return errors.New("artifact name is required")
	}
	test := browser.SafeName(a.Test)
	if test == "" {
		test = "run"
	}
	rel := filepath.Join(test, browser.SafeName(a.Name)+a.Kind.Ext())
	path := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	e := Entry{
		Test:    a.Test,
		Name:    a.Name,
		Kind:    a.Kind,
		Path:    filepath.ToSlash(rel),
		Size:    len(a.Data),
		Created: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.DeleteFunc(s.entries, func(old Entry) bool { return old.Path == e.Path })
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns the stored artifacts in attach order.
func (s *FileSink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// WriteEnvironment records the run's environment properties once.
func (s *FileSink) WriteEnvironment(env map[string]string) error {
	return writeJSON(filepath.Join(s.dir, EnvironmentFile), env)
}

// WriteManifest records the run, its results and every stored artifact.
func (s *FileSink) WriteManifest(run *models.TestRun, results []*models.CaseResult) error {
	m := Manifest{
		Run: RunRecord{
			ID:         run.ID,
			BaseURL:    run.BaseURL,
			Status:     run.Status,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		},
		Results:   make([]ResultRecord, 0, len(results)),
		Artifacts: s.Entries(),
	}
	for _, r := range results {
		m.Results = append(m.Results, ResultRecord{
			ID:         r.ID,
			Name:       r.Name,
			Severity:   r.Severity,
			Status:     r.Status,
			Message:    r.Message,
			DurationMS: r.Duration.Milliseconds(),
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return writeJSON(filepath.Join(s.dir, ManifestFile), m)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ManifestStore reads run directories written by FileSink.
type ManifestStore struct {
	root string
}

// NewManifestStore reads runs under root.
func NewManifestStore(root string) *ManifestStore {
	return &ManifestStore{root: root}
}

// Root is the directory holding one subdirectory per run.
func (m *ManifestStore) Root() string {
	return m.root
}

// Manifest loads the manifest of run id.
func (m *ManifestStore) Manifest(id string) (*Manifest, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return nil, ErrRunNotFound
	}
	data, err := os.ReadFile(filepath.Join(m.root, id, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("failed to decode manifest of %s: %w", id, err)
	}
	return &man, nil
}

func (r RunRecord) model() *models.TestRun {
	return &models.TestRun{
		ID:         r.ID,
		BaseURL:    r.BaseURL,
		Status:     r.Status,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// ListRuns returns up to limit runs, newest first. Directories without a
// readable manifest are skipped.
func (m *ManifestStore) ListRuns(limit int) ([]*models.TestRun, error) {
	dirs, err := os.ReadDir(m.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []*models.TestRun
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		man, err := m.Manifest(d.Name())
		if err != nil {
			continue
		}
		runs = append(runs, man.Run.model())
	}
	slices.SortFunc(runs, func(a, b *models.TestRun) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun returns a run and its results from the manifest.
func (m *ManifestStore) GetRun(id string) (*models.TestRun, []*models.CaseResult, error) {
	man, err := m.Manifest(id)
	if err != nil {
		return nil, nil, err
	}
	results := make([]*models.CaseResult, 0, len(man.Results))
	for _, r := range man.Results {
		results = append(results, &models.CaseResult{
			ID:         r.ID,
			RunID:      man.Run.ID,
			Name:       r.Name,
			Severity:   r.Severity,
			Status:     r.Status,
			Message:    r.Message,
			Duration:   time.Duration(r.DurationMS) * time.Millisecond,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return man.Run.model(), results, nil
}

// Artifacts lists the stored artifacts of run id.
func (m *ManifestStore) Artifacts(id string) ([]Entry, error) {
	man, err := m.Manifest(id)
	if err != nil {
		return nil, err
	}
	return man.Artifacts, nil
}

// ArtifactPath resolves a manifest entry path of run id to a file on disk.
// Paths that are not listed in the manifest are rejected.
func (m *ManifestStore) ArtifactPath(id, rel string) (Entry, string, error) {
	entries, err := m.Artifacts(id)
	if err != nil {
		return Entry{}, "", err
	}
	for _, e := range entries {
		if e.Path == rel {
			return e, filepath.Join(m.root, id, filepath.FromSlash(rel)), nil
		}
	}
	return Entry{}, "", fs.ErrNotExist
}
