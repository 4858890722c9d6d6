package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/openclaw/plashboard/internal/atomicfile"
	"github.com/openclaw/plashboard/internal/domain"
)

// TemplateStore persists templates as one JSON file per id under
// <data_dir>/templates/. A single mutex serializes mutations so that
// concurrent templateCreate calls to the same id resolve to
// domain.ErrTemplateConflict instead of a last-writer-wins race.
type TemplateStore struct {
	paths Paths
	mu    sync.Mutex
}

func NewTemplateStore(paths Paths) *TemplateStore {
	return &TemplateStore{paths: paths}
}

// List returns all templates sorted by id ascending — the deterministic order
// used by activation fallback and deletion fallback.
func (s *TemplateStore) List() ([]*domain.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *TemplateStore) listLocked() ([]*domain.Template, error) {
	entries, err := os.ReadDir(s.paths.TemplatesDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list templates: %v", domain.ErrIO, err)
	}

	var out []*domain.Template
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var t domain.Template
		path := filepath.Join(s.paths.TemplatesDir(), e.Name())
		if err := atomicfile.ReadJSON(path, &t); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrIO, path, err)
		}
		out = append(out, &t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the template with the given id, or nil if none exists.
func (s *TemplateStore) Get(id string) (*domain.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *TemplateStore) getLocked(id string) (*domain.Template, error) {
	var t domain.Template
	if err := atomicfile.ReadJSON(s.paths.TemplateFile(id), &t); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read template %s: %v", domain.ErrIO, id, err)
	}
	return &t, nil
}

// Create writes a brand-new template, failing with domain.ErrTemplateConflict
// if one with the same id already exists. This is the serialization point
// that resolves the concurrent-create ambiguity in spec §9.
func (s *TemplateStore) Create(t *domain.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getLocked(t.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: template %q", domain.ErrTemplateConflict, t.ID)
	}
	return s.writeLocked(t)
}

// Upsert writes t regardless of whether it already exists.
func (s *TemplateStore) Upsert(t *domain.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(t)
}

func (s *TemplateStore) writeLocked(t *domain.Template) error {
	if err := atomicfile.WriteJSON(s.paths.TemplateFile(t.ID), t); err != nil {
		return fmt.Errorf("%w: write template %s: %v", domain.ErrIO, t.ID, err)
	}
	return nil
}

// Remove deletes a template's file. Missing is treated as success.
func (s *TemplateStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.paths.TemplateFile(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove template %s: %v", domain.ErrIO, id, err)
	}
	return nil
}
