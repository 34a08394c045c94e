package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	snapshotsDir = "snapshots"
	indexFile    = "index.json"
)

// ErrNotFound is returned when no snapshot matches a reference.
var ErrNotFound = errors.New("snapshot not found")

// Store provides file-backed storage for analysis snapshots.
type Store struct {
	mu      sync.RWMutex
	rootDir string
	index   *SnapshotIndex
}

// NewStore creates or opens a snapshot store at the given directory.
func NewStore(rootDir string) (*Store, error) {
	s := &Store{rootDir: rootDir}

	if err := os.MkdirAll(filepath.Join(rootDir, snapshotsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", rootDir, err)
	}

	// Load or create index
	if err := s.loadIndex(); err != nil {
		s.index = &SnapshotIndex{
			Snapshots: []SnapshotSummary{},
			UpdatedAt: time.Now(),
		}
	}

	return s, nil
}

// Save persists a snapshot. When ParentID is empty it is linked to the
// latest snapshot of the same repository and branch.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ParentID == "" {
		if prev, ok := s.latest(snap.Repository, snap.Branch); ok && prev.ID != snap.ID {
			snap.ParentID = prev.ID
		}
	}

	snapData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(s.path(snap.ID), snapData, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	// Update index
	replaced := false
	for i, summary := range s.index.Snapshots {
		if summary.ID == snap.ID {
			s.index.Snapshots[i] = snap.Index()
			replaced = true
			break
		}
	}
	if !replaced {
		s.index.Snapshots = append(s.index.Snapshots, snap.Index())
	}
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Load retrieves a snapshot by ID.
func (s *Store) Load(id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

func (s *Store) load(id string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}

	return &snap, nil
}

// List returns snapshot summaries, newest first. An empty repository lists
// every repository; a positive limit truncates the result.
func (s *Store) List(repository string, limit int) []SnapshotSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]SnapshotSummary, 0, len(s.index.Snapshots))
	for _, summary := range s.index.Snapshots {
		if repository == "" || summary.Repository == repository {
			result = append(result, summary)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Latest returns the most recent snapshot of a repository and branch.
func (s *Store) Latest(repository, branch string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.latest(repository, branch)
	if !ok {
		return nil, fmt.Errorf("%w: no snapshot for %s@%s", ErrNotFound, repository, branch)
	}
	return s.load(summary.ID)
}

func (s *Store) latest(repository, branch string) (SnapshotSummary, bool) {
	var best SnapshotSummary
	found := false
	for _, summary := range s.index.Snapshots {
		if summary.Repository != repository || summary.Branch != branch {
			continue
		}
		if !found || !summary.CreatedAt.Before(best.CreatedAt) {
			best = summary
			found = true
		}
	}
	return best, found
}

// Resolve finds a snapshot by ID, tag, or unique ID prefix.
func (s *Store) Resolve(ref string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []string
	for _, summary := range s.index.Snapshots {
		switch {
		case summary.ID == ref:
			return s.load(summary.ID)
		case summary.Tag != "" && summary.Tag == ref:
			return s.load(summary.ID)
		case strings.HasPrefix(summary.ID, ref):
			matches = append(matches, summary.ID)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return s.load(matches[0])
	default:
		return nil, fmt.Errorf("snapshot reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// Tag assigns a tag to a snapshot.
func (s *Store) Tag(id, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(id)
	if err != nil {
		return err
	}

	snap.Tag = tag
	snapData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(s.path(id), snapData, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	// Update index
	for i, summary := range s.index.Snapshots {
		if summary.ID == id {
			s.index.Snapshots[i].Tag = tag
			break
		}
	}
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Delete removes a snapshot.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}

	// Remove from index
	filtered := s.index.Snapshots[:0]
	for _, summary := range s.index.Snapshots {
		if summary.ID != id {
			filtered = append(filtered, summary)
		}
	}
	s.index.Snapshots = filtered
	s.index.UpdatedAt = time.Now()

	return s.saveIndex()
}

func (s *Store) path(id string) string {
	return filepath.Join(s.rootDir, snapshotsDir, id+".json")
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if err != nil {
		return err
	}
	s.index = &SnapshotIndex{}
	return json.Unmarshal(data, s.index)
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.rootDir, indexFile), data, 0o644)
}
