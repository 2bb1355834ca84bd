package location

import (
	"encoding/json"
	"os"
	"path/filepath"

	"leavenow/internal/model"
)

// FileCache persists the last known position as a small JSON file in
// the state directory.
type FileCache struct {
	path string
}

// NewFileCache returns a cache stored at the given path, e.g.
// "/var/lib/leavenow/position.json".
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (c *FileCache) Get() (model.Position, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return model.Position{}, err
	}
	var pos model.Position
	if err := json.Unmarshal(data, &pos); err != nil {
		return model.Position{}, err
	}
	return pos, nil
}

// Set writes the position atomically (temp file + rename) so a crash
// mid-write never leaves a truncated cache behind.
func (c *FileCache) Set(pos model.Position) error {
	data, err := json.Marshal(pos)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".position-*.tmp")
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
	return os.Rename(tmpName, c.path)
}
