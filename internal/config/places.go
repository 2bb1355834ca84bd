package config

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	appLog "leavenow/internal/log"
	"leavenow/internal/model"
)

// knownPlacesDoc is the on-disk shape of the known-places document:
//
//	{"known_places": [{"location_names": [...], "preferred_routes": [...]}]}
type knownPlacesDoc struct {
	KnownPlaces []model.KnownPlace `json:"known_places"`
}

// PlacesStore loads the known-places document from disk.
type PlacesStore struct {
	path string
}

// NewPlacesStore returns a store reading from the given JSON path.
func NewPlacesStore(path string) *PlacesStore {
	return &PlacesStore{path: path}
}

// KnownPlaces reads and parses the known-places document.
//
// A missing or malformed document degrades to an empty list: the route
// chooser falls back to its worst-case default, which is safer than
// failing the whole planning cycle over a config problem.
func (s *PlacesStore) KnownPlaces(_ context.Context) ([]model.KnownPlace, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("known places file missing, using empty list", "path", s.path)
			return nil, nil
		}
		appLog.Error("known places read failed, using empty list", err, "path", s.path)
		return nil, nil
	}

	var doc knownPlacesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		appLog.Error("known places parse failed, using empty list", err, "path", s.path)
		return nil, nil
	}

	return doc.KnownPlaces, nil
}
