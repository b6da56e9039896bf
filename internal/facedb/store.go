// Package facedb persists enrolled identities as a single JSON document.
package facedb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrDuplicateName is returned when a record with the same name already
// exists. Names are compared byte for byte, case sensitive.
var ErrDuplicateName = errors.New("name already enrolled")

// ErrWrite wraps any failure to persist the document. The previously stored
// document is left intact.
var ErrWrite = errors.New("face database write failed")

// ErrMalformed is returned when the stored document does not match the
// expected schema.
var ErrMalformed = errors.New("malformed face database document")

// Record is one enrolled identity. Immutable once written, except through
// explicit removal.
type Record struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a uniqueness-enforcing collection of records backed by one JSON
// file. It is a single-writer resource; concurrent enrollment against the
// same file is not supported.
type Store struct {
	path    string
	dim     int
	records []Record
	byName  map[string]int
}

// Open reads the document at path. A missing file yields an empty store; a
// present but malformed document is an error rather than silent data loss.
// dim is the embedding dimension every record must have.
func Open(path string, dim int) (*Store, error) {
	s := &Store{
		path:   path,
		dim:    dim,
		byName: make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read face database %s: %w", path, err)
	}

	if len(data) == 0 {
		return s, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse face database %s: %w", path, errors.Join(err, ErrMalformed))
	}

	for i, r := range records {
		if err := s.validate(r); err != nil {
			return nil, fmt.Errorf("record %d in %s: %w", i, path, err)
		}
		if _, exists := s.byName[r.Name]; exists {
			return nil, fmt.Errorf("record %d in %s: duplicate name %q: %w", i, path, r.Name, ErrMalformed)
		}
		s.byName[r.Name] = len(s.records)
		s.records = append(s.records, r)
	}

	return s, nil
}

func (s *Store) validate(r Record) error {
	if r.Name == "" {
		return fmt.Errorf("missing name: %w", ErrMalformed)
	}
	if len(r.Embedding) != s.dim {
		return fmt.Errorf("embedding has %d values, expected %d: %w", len(r.Embedding), s.dim, ErrMalformed)
	}
	return nil
}

// Contains reports whether a record with exactly this name exists.
func (s *Store) Contains(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Get returns the record for the given name.
func (s *Store) Get(name string) (Record, bool) {
	idx, ok := s.byName[name]
	if !ok {
		return Record{}, false
	}
	return s.records[idx], true
}

// Records returns all records in insertion order. The slice is a copy.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Count returns the number of enrolled identities.
func (s *Store) Count() int {
	return len(s.records)
}

// Append validates the record, re-checks name uniqueness, adds the record,
// and rewrites the document. On any failure the in-memory state and the
// stored document are unchanged.
func (s *Store) Append(r Record) error {
	if err := s.validate(r); err != nil {
		return err
	}
	if s.Contains(r.Name) {
		return fmt.Errorf("%q: %w", r.Name, ErrDuplicateName)
	}

	s.records = append(s.records, r)
	s.byName[r.Name] = len(s.records) - 1

	if err := s.persist(); err != nil {
		// Roll back the in-memory append so the store matches the file.
		s.records = s.records[:len(s.records)-1]
		delete(s.byName, r.Name)
		return err
	}
	return nil
}

// Remove deletes a record by name and rewrites the document.
func (s *Store) Remove(name string) error {
	idx, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("no record named %q", name)
	}

	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	delete(s.byName, name)
	for i := idx; i < len(s.records); i++ {
		s.byName[s.records[i].Name] = i
	}

	if err := s.persist(); err != nil {
		// Restore the record at its old position.
		s.records = append(s.records[:idx], append([]Record{removed}, s.records[idx:]...)...)
		for i := idx; i < len(s.records); i++ {
			s.byName[s.records[i].Name] = i
		}
		return err
	}
	return nil
}

// persist writes the full document atomically: marshal, write to a temp file
// next to the target, then rename over it. A crash mid-write leaves the
// previous document in place.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal face database: %w", errors.Join(err, ErrWrite))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", errors.Join(err, ErrWrite))
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", errors.Join(err, ErrWrite))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", errors.Join(err, ErrWrite))
	}

	return nil
}

// Path returns the backing document path.
func (s *Store) Path() string {
	return s.path
}

// Dim returns the embedding dimension the store enforces.
func (s *Store) Dim() int {
	return s.dim
}
