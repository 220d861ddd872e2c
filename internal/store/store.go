// Package store persists grid state as flat JSON files: one default
// state file plus up to MaxSnapshots named snapshots under a saves
// directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MaxSnapshots is the hard cap on named snapshots. Saving beyond it
	// requires designating an existing snapshot to replace.
	MaxSnapshots = 5

	stateFileName = "settings.json"
	savesDirName  = "saves"
	snapshotExt   = ".json"
)

var (
	// ErrInvalidName reports an empty or unusable snapshot name.
	ErrInvalidName = errors.New("invalid snapshot name")

	// ErrNotFound reports a snapshot that does not exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrQuotaExceeded reports an attempt to create a new snapshot while
	// MaxSnapshots already exist and no replacement target was given.
	ErrQuotaExceeded = fmt.Errorf("snapshot limit of %d reached", MaxSnapshots)

	// ErrBadReplaceTarget reports a replacement target that is not an
	// existing snapshot.
	ErrBadReplaceTarget = errors.New("replacement target is not an existing snapshot")
)

// Store reads and writes state records under a base directory.
type Store struct {
	baseDir string
}

// New returns a store rooted at baseDir. The directory itself must
// exist; the saves subdirectory is created on first save.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) statePath() string {
	return filepath.Join(s.baseDir, stateFileName)
}

func (s *Store) savesDir() string {
	return filepath.Join(s.baseDir, savesDirName)
}

func (s *Store) snapshotPath(name string) string {
	return filepath.Join(s.savesDir(), name+snapshotExt)
}

// SaveDefault writes the unnamed default state file.
func (s *Store) SaveDefault(st State) error {
	return writeState(s.statePath(), st)
}

// LoadDefault reads the default state file. A missing file is not an
// error: a fresh default state is returned instead.
func (s *Store) LoadDefault() (State, error) {
	st, err := readState(s.statePath())
	if errors.Is(err, os.ErrNotExist) {
		return DefaultState(), nil
	}
	return st, err
}

// ValidateName rejects names that are empty or would escape the saves
// directory.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Save writes a named snapshot. Overwriting an existing name is always
// allowed. Creating a new name when MaxSnapshots already exist requires
// replace to name an existing snapshot, which is deleted first; on any
// validation failure the existing snapshots are left untouched.
func (s *Store) Save(name string, st State, replace string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	names, err := s.List()
	if err != nil {
		return err
	}
	exists := contains(names, name)

	if !exists && len(names) >= MaxSnapshots {
		if replace == "" {
			return ErrQuotaExceeded
		}
		if !contains(names, replace) {
			return fmt.Errorf("%w: %q", ErrBadReplaceTarget, replace)
		}
		if err := os.Remove(s.snapshotPath(replace)); err != nil {
			return fmt.Errorf("remove snapshot %q: %w", replace, err)
		}
	}

	if err := os.MkdirAll(s.savesDir(), 0o755); err != nil {
		return fmt.Errorf("create saves directory: %w", err)
	}
	return writeState(s.snapshotPath(name), st)
}

// Load reads a named snapshot.
func (s *Store) Load(name string) (State, error) {
	if err := ValidateName(name); err != nil {
		return State{}, err
	}
	st, err := readState(s.snapshotPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return State{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return st, err
}

// List returns the existing snapshot names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.savesDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), snapshotExt))
	}
	sort.Strings(names)
	return names, nil
}

func writeState(path string, st State) error {
	if err := st.validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func readState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse state file %s: %w", filepath.Base(path), err)
	}
	if err := st.validate(); err != nil {
		return State{}, fmt.Errorf("state file %s: %w", filepath.Base(path), err)
	}
	return st, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
