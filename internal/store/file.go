package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fuelbot/internal/models"
)

// stateDocument is the on-disk layout of the state file.
type stateDocument struct {
	State map[int64]string `yaml:"state"`
}

// stateFileMode is used for a new state file. An existing file keeps its mode.
const stateFileMode os.FileMode = 0644

// FileStore keeps the snapshot in a YAML file.
type FileStore struct {
	path string
}

// OpenFile returns a FileStore for path, creating an empty state file if none exists.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.Write(context.Background(), map[int64]models.FuelState{}); err != nil {
			return nil, fmt.Errorf("failed to initialise state file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat state file %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Read(_ context.Context) (map[int64]models.FuelState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	var doc stateDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}

	states := make(map[int64]models.FuelState, len(doc.State))
	for id, st := range doc.State {
		states[id] = models.ParseFuelState(st)
	}
	return states, nil
}

// Write replaces the file through a rename so a crash never leaves a half-written snapshot.
func (s *FileStore) Write(_ context.Context, states map[int64]models.FuelState) error {
	doc := stateDocument{State: make(map[int64]string, len(states))}
	for id, st := range states {
		doc.State[id] = st.String()
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	mode := stateFileMode
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set mode of temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
