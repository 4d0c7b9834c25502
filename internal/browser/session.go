package browser

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SessionArtifact is a saved storage state on disk. It is written once and
// only read afterwards.
type SessionArtifact struct {
	Path    string
	Created time.Time
}

// SessionStore guarantees a session artifact is produced at most once per
// path. Concurrent callers share the first caller's attempt. A failed attempt
// is not remembered, so the next caller tries again.
type SessionStore struct {
	group singleflight.Group

	mu        sync.Mutex
	artifacts map[string]SessionArtifact
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{artifacts: make(map[string]SessionArtifact)}
}

// Get returns the artifact for path, running create if nobody has produced it
// yet. create must write the file at path.
func (s *SessionStore) Get(path string, create func() error) (SessionArtifact, error) {
	if a, ok := s.lookup(path); ok {
		return a, nil
	}

	v, err, _ := s.group.Do(path, func() (any, error) {
		if a, ok := s.lookup(path); ok {
			return a, nil
		}
		if err := create(); err != nil {
			return SessionArtifact{}, err
		}
		a := SessionArtifact{Path: path, Created: time.Now()}
		s.mu.Lock()
		s.artifacts[path] = a
		s.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return SessionArtifact{}, err
	}
	return v.(SessionArtifact), nil
}

func (s *SessionStore) lookup(path string) (SessionArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[path]
	return a, ok
}
