package filestore

import (
	"fmt"
	"os"
	"sync"

	"github.com/openclaw/plashboard/internal/atomicfile"
	"github.com/openclaw/plashboard/internal/domain"
)

// StateStore persists the single runtime state document at
// <data_dir>/state.json.
type StateStore struct {
	paths Paths
	mu    sync.Mutex
}

func NewStateStore(paths Paths) *StateStore {
	return &StateStore{paths: paths}
}

// Load returns the empty state when state.json is absent; otherwise it parses
// the file and normalizes any keys an older version may have omitted.
func (s *StateStore) Load() (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st domain.State
	if err := atomicfile.ReadJSON(s.paths.StateFile(), &st); err != nil {
		if os.IsNotExist(err) {
			return domain.NewState(), nil
		}
		return nil, fmt.Errorf("%w: read state: %v", domain.ErrIO, err)
	}
	st.Normalize()
	return &st, nil
}

// Save writes st atomically.
func (s *StateStore) Save(st *domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := atomicfile.WriteJSON(s.paths.StateFile(), st); err != nil {
		return fmt.Errorf("%w: write state: %v", domain.ErrIO, err)
	}
	return nil
}
