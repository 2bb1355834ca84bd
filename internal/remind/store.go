package remind

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"leavenow/internal/model"
)

// FileStore keeps pending reminders in a JSON file in the state
// directory, where an external notifier picks them up. Each upsert is
// a single read-modify-write guarded by a mutex, so two reminders in
// one cycle cannot race the file against each other.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store at the given path, e.g.
// "/var/lib/leavenow/reminders.json".
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) ListPending(_ context.Context) ([]model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Upsert replaces the pending reminder with the same title, or appends
// a new one.
func (s *FileStore) Upsert(_ context.Context, r model.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range pending {
		if pending[i].Title == r.Title {
			pending[i].Body = r.Body
			pending[i].Trigger = r.Trigger
			replaced = true
			break
		}
	}
	if !replaced {
		pending = append(pending, r)
	}

	return s.save(pending)
}

func (s *FileStore) load() ([]model.Reminder, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var pending []model.Reminder
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *FileStore) save(pending []model.Reminder) error {
	data, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".reminders-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
