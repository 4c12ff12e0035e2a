package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofrs/flock"
)

// ErrInvalidValue is returned when a write names a value outside the
// field's enumerated set. The store is never mutated in that case.
var ErrInvalidValue = errors.New("value not in enumerated set")

const thumbnailName = "thumbnail.jpeg"

// Store owns the settings document and the per-user workspace root.
// All load-modify-save cycles are serialized through an in-process mutex
// plus a file lock, so the bot and worker processes can share the document.
type Store struct {
	path string // settings JSON document
	root string // per-user workspace directories live under here

	mu  sync.Mutex
	flk *flock.Flock
}

func NewStore(path, root string) *Store {
	return &Store{
		path: path,
		root: root,
		flk:  flock.New(path + ".lock"),
	}
}

// Load reads the full document. A missing, empty, or corrupt document is
// treated as "no data" and loads as an empty map.
func (s *Store) Load() (map[string]UserConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("lock settings: %w", err)
	}
	defer s.flk.Unlock()
	return s.load()
}

func (s *Store) load() (map[string]UserConfig, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]UserConfig{}, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	data := map[string]UserConfig{}
	if len(b) == 0 || json.Unmarshal(b, &data) != nil {
		// Unreadable document: silent recovery, start from empty.
		return map[string]UserConfig{}, nil
	}
	return data, nil
}

// Save writes the full document with stable 4-space indentation.
func (s *Store) Save(data map[string]UserConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock settings: %w", err)
	}
	defer s.flk.Unlock()
	return s.save(data)
}

func (s *Store) save(data map[string]UserConfig) error {
	b, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// mutate runs fn over the loaded document under both locks and saves the
// result. fn returning false skips the save.
func (s *Store) mutate(fn func(map[string]UserConfig) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock settings: %w", err)
	}
	defer s.flk.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	if !fn(data) {
		return nil
	}
	return s.save(data)
}

func key(userID int64) string { return strconv.FormatInt(userID, 10) }

// Ensure returns the user's record, creating it with defaults on first
// contact. Idempotent: repeated calls yield identical records.
func (s *Store) Ensure(userID int64) (UserConfig, error) {
	var out UserConfig
	err := s.mutate(func(data map[string]UserConfig) bool {
		if cfg, ok := data[key(userID)]; ok {
			out = cfg
			return false
		}
		out = Defaults()
		data[key(userID)] = out
		return true
	})
	return out, err
}

// Reset overwrites the user's record with defaults and removes any
// thumbnail file in the same operation.
func (s *Store) Reset(userID int64) error {
	err := s.mutate(func(data map[string]UserConfig) bool {
		data[key(userID)] = Defaults()
		return true
	})
	if err != nil {
		return err
	}
	return s.RemoveThumbnail(userID)
}

// Set writes one enumerated field, rejecting values outside its set.
func (s *Store) Set(userID int64, field, value string) (UserConfig, error) {
	if !ValidValue(field, value) {
		return UserConfig{}, fmt.Errorf("%s=%q: %w", field, value, ErrInvalidValue)
	}
	return s.update(userID, func(cfg *UserConfig) { cfg.apply(field, value) })
}

// SetText writes a free-form prefix/suffix value verbatim.
func (s *Store) SetText(userID int64, field, value string) (UserConfig, error) {
	if field != FieldPrefix && field != FieldSuffix {
		return UserConfig{}, fmt.Errorf("%s is not a text field: %w", field, ErrInvalidValue)
	}
	return s.update(userID, func(cfg *UserConfig) { cfg.applyText(field, value) })
}

// ToggleUpload flips between media and document delivery.
func (s *Store) ToggleUpload(userID int64) (UserConfig, error) {
	return s.update(userID, func(cfg *UserConfig) {
		if cfg.UploadMode == UploadDocument {
			cfg.UploadMode = UploadMedia
		} else {
			cfg.UploadMode = UploadDocument
		}
	})
}

func (s *Store) update(userID int64, fn func(*UserConfig)) (UserConfig, error) {
	var out UserConfig
	err := s.mutate(func(data map[string]UserConfig) bool {
		cfg, ok := data[key(userID)]
		if !ok {
			cfg = Defaults()
		}
		fn(&cfg)
		data[key(userID)] = cfg
		out = cfg
		return true
	})
	return out, err
}

// UserDir is the per-user workspace directory.
func (s *Store) UserDir(userID int64) string {
	return filepath.Join(s.root, key(userID))
}

// EnsureUserDir creates the workspace directory if needed.
func (s *Store) EnsureUserDir(userID int64) (string, error) {
	dir := s.UserDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create user dir: %w", err)
	}
	return dir, nil
}

// ThumbnailPath is where the user's thumbnail lives, whether or not one exists.
func (s *Store) ThumbnailPath(userID int64) string {
	return filepath.Join(s.UserDir(userID), thumbnailName)
}

// HasThumbnail reports whether a thumbnail file is present on disk.
func (s *Store) HasThumbnail(userID int64) bool {
	_, err := os.Stat(s.ThumbnailPath(userID))
	return err == nil
}

// RemoveThumbnail deletes the thumbnail file if present.
func (s *Store) RemoveThumbnail(userID int64) error {
	err := os.Remove(s.ThumbnailPath(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove thumbnail: %w", err)
	}
	return nil
}
