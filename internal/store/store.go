// Package store implements C1: durable, atomic load/save of one playbook
// layer, with schema migration. The write path is adapted from the
// teacher's FileStorage.atomicWrite: write to a temp file in the same
// directory, fsync, close, rename over the target — never a partial write.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cass-memory/playbook/internal/taxonomy"
	"github.com/cass-memory/playbook/internal/types"
)

// Store persists playbook layers to disk. A Store may be shared across
// goroutines; each Load and each Save on a path is serialized by that
// path's own mutex. The mutex is not held between a Load and the Save
// that follows it, so two load-mutate-save sequences on one path can
// interleave.
type Store struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store.
func New() *Store {
	return &Store{locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lockFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// Load reads and parses the playbook at path. A missing file returns a
// fresh, empty playbook rather than an error. A file that exists but
// cannot be parsed returns a CORRUPT_STORE error.
func (s *Store) Load(path string) (*types.Playbook, error) {
	l := s.lockFor(path)
	l.Lock()
	defer l.Unlock()
	return s.loadLocked(path)
}

func (s *Store) loadLocked(path string) (*types.Playbook, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyPlaybook(), nil
	}
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.FileNotFound, "read playbook", err)
	}

	pb, err := Migrate(data)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.CorruptStore, "parse playbook", err)
	}
	return pb, nil
}

// Save atomically persists pb to path: serialize to a temp file in the
// same directory, fsync, close, then rename over the target. Any
// unrecognized top-level keys captured on load are merged back in
// unchanged (spec.md §6.2).
func (s *Store) Save(path string, pb *types.Playbook) error {
	l := s.lockFor(path)
	l.Lock()
	defer l.Unlock()

	doc, err := withUnknown(pb)
	if err != nil {
		return fmt.Errorf("merge unknown keys: %w", err)
	}
	return atomicWriteYAML(path, doc)
}

// withUnknown re-serializes pb and splices pb.Unknown's keys into the
// resulting document, so keys this struct doesn't model round-trip
// unchanged across a load-mutate-save cycle.
func withUnknown(pb *types.Playbook) (map[string]any, error) {
	data, err := yaml.Marshal(pb)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for k, v := range pb.Unknown {
		if _, exists := doc[k]; !exists {
			doc[k] = v
		}
	}
	return doc, nil
}

func emptyPlaybook() *types.Playbook {
	return &types.Playbook{
		SchemaVersion: types.CurrentSchemaVersion,
		Bullets:       []types.Bullet{},
	}
}

func atomicWriteYAML(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-playbook-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeYAML(tmp, v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}
	success = true
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
