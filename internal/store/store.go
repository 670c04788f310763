// Package store persists the device record: broker endpoint, TLS material
// paths and the last known coordinates. The record is a JSON file that other
// tools may extend; fields this package does not know about survive every
// rewrite.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrConfigIO matches any ConfigIOError via errors.Is.
var ErrConfigIO = errors.New("store: config io failure")

// ConfigIOError reports a failure reading or writing the device record.
type ConfigIOError struct {
	Op   string // "read", "decode", "encode", "write"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigIOError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

// Is reports whether target is ErrConfigIO.
func (e *ConfigIOError) Is(target error) bool {
	return target == ErrConfigIO
}

// Unwrap returns the underlying error.
func (e *ConfigIOError) Unwrap() error {
	return e.Err
}

// Coordinates is the persisted location.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Record is the typed view of the device record.
type Record struct {
	Endpoint    string       `json:"endpoint,omitempty"`
	CACert      string       `json:"ca-cert,omitempty"`
	Cert        string       `json:"cert,omitempty"`
	PrivateKey  string       `json:"private-key,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// HasTLS reports whether the record names a full set of TLS material.
func (r Record) HasTLS() bool {
	return r.CACert != "" && r.Cert != "" && r.PrivateKey != ""
}

// FileStore reads and rewrites the device record on disk. It is safe for
// concurrent use; each update is one read-modify-write under a lock and is
// written through a temp file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore for path. The file need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record. A missing file yields an empty Record.
func (s *FileStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, &ConfigIOError{Op: "read", Path: s.path, Err: err}
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, &ConfigIOError{Op: "decode", Path: s.path, Err: err}
	}
	return rec, nil
}

// SaveCoordinates replaces coordinates.lat and coordinates.long, keeping
// every other field of the record, including unknown fields inside
// "coordinates".
func (s *FileStore) SaveCoordinates(lat, long float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRaw()
	if err != nil {
		return err
	}

	coords, _ := raw["coordinates"].(map[string]any)
	if coords == nil {
		coords = make(map[string]any)
	}
	coords["lat"] = lat
	coords["long"] = long
	raw["coordinates"] = coords

	return s.writeRaw(raw)
}

func (s *FileStore) readRaw() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, &ConfigIOError{Op: "read", Path: s.path, Err: err}
	}

	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigIOError{Op: "decode", Path: s.path, Err: err}
	}
	return raw, nil
}

func (s *FileStore) writeRaw(raw map[string]any) error {
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return &ConfigIOError{Op: "encode", Path: s.path, Err: err}
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return &ConfigIOError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ConfigIOError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ConfigIOError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &ConfigIOError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &ConfigIOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
