// Package storage keeps upload artifacts on disk.
//
// Each upload owns a directory named by its artifact ID under the store root.
// The directory holds the raw upload (under its submitted base name) and the
// cleaned CSV (under the store's fixed cleaned-file name). Concurrent uploads
// never share a directory, so they never overwrite each other's output.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/cleaner/internal/codec"
	"github.com/JonMunkholm/cleaner/internal/dataset"
	"github.com/google/uuid"
)

// DefaultCleanedName is the file name of every cleaned artifact.
const DefaultCleanedName = "cleaned_data.csv"

// ErrNotFound is returned for unknown artifacts or files.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidName is returned for file names that would leave the artifact directory.
var ErrInvalidName = errors.New("invalid artifact file name")

// Store writes and resolves artifacts under a root directory.
type Store struct {
	dir         string
	cleanedName string
}

// NewStore creates the root directory if needed.
func NewStore(dir, cleanedName string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage: empty directory")
	}
	if cleanedName == "" {
		cleanedName = DefaultCleanedName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Store{dir: dir, cleanedName: cleanedName}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// CleanedName returns the fixed cleaned-artifact file name.
func (s *Store) CleanedName() string { return s.cleanedName }

// NewID allocates an artifact ID.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// SaveUpload writes the raw upload and returns its path.
func (s *Store) SaveUpload(id, fileName string, data []byte) (string, error) {
	name := filepath.Base(filepath.Clean("/" + fileName))
	if name == "/" || name == "." {
		return "", ErrInvalidName
	}
	return s.write(id, name, data)
}

// SaveCleaned writes ds as CSV under the cleaned-file name and returns its path.
func (s *Store) SaveCleaned(id string, ds *dataset.Dataset) (string, error) {
	data, err := codec.MarshalCSV(ds)
	if err != nil {
		return "", fmt.Errorf("storage: encode cleaned data: %w", err)
	}
	return s.write(id, s.cleanedName, data)
}

func (s *Store) write(id, name string, data []byte) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("storage: artifact id %q: %w", id, err)
	}

	dir := filepath.Join(s.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create artifact dir: %w", err)
	}

	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	return path, nil
}

// Path resolves a stored file. It fails with ErrInvalidName for IDs or names
// that are not plain path elements and ErrNotFound if the file is absent.
func (s *Store) Path(id, name string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrNotFound
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}

	path := filepath.Join(s.dir, id, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Open opens a stored file for reading.
func (s *Store) Open(id, name string) (*os.File, error) {
	path, err := s.Path(id, name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}
