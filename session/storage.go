package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/discograf/discograf/errors"
)

// recordName is the fixed namespace key under which the session record is
// persisted
const recordName = "discograf-auth.json"

// Storage persists the session record across restarts
type Storage interface {
	// Load reads the persisted record. A missing record returns (nil, nil).
	Load() (*State, error)

	// Save writes the record, replacing any previous one.
	Save(state State) error
}

// FileStorage keeps the session record as a single JSON file on disk
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage rooted at dir. An empty dir resolves to
// the OS user config directory.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, 500, "resolve user config dir")
		}
		dir = filepath.Join(base, "discograf")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, 500, "create session dir")
	}

	return &FileStorage{path: filepath.Join(dir, recordName)}, nil
}

// Load implements Storage
func (s *FileStorage) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, 500, "read session record")
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, 500, "decode session record")
	}

	return &state, nil
}

// Save implements Storage. The write is atomic so the record never observes a
// partial state.
func (s *FileStorage) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, 500, "encode session record")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, 500, "write session record")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, 500, "replace session record")
	}

	return nil
}

// memoryStorage is a no-disk Storage used as the default when persistence is
// not configured
type memoryStorage struct {
	state *State
}

func (s *memoryStorage) Load() (*State, error) {
	return s.state, nil
}

func (s *memoryStorage) Save(state State) error {
	s.state = &state
	return nil
}
