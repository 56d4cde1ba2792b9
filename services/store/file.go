package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"imdiekejordan/auctionworker/internal/scraper"
	apperr "imdiekejordan/auctionworker/pkg/errors"
)

// FileStore persists the dataset as pretty-printed JSON on local disk.
type FileStore struct {
	path string
}

// NewFileStore creates a file store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get reads the dataset from disk. A missing file is not an error.
func (s *FileStore) Get(_ context.Context) (*scraper.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.NewPersistence(fmt.Sprintf("read %s", s.path), err)
	}

	var dataset scraper.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, apperr.NewPersistence(fmt.Sprintf("decode %s", s.path), err)
	}
	return &dataset, nil
}

// Put writes the dataset to disk, creating parent directories as needed.
func (s *FileStore) Put(_ context.Context, dataset *scraper.Dataset) error {
	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return apperr.NewPersistence("encode dataset", err)
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.NewPersistence(fmt.Sprintf("create directory %s", dir), err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return apperr.NewPersistence(fmt.Sprintf("write %s", s.path), err)
	}
	return nil
}
