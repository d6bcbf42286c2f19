package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Loader reads one tabular file format into a Dataset.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a file format no loader accepts.
var ErrUnsupported = errors.New("unsupported data format")

// Load selects a loader by filename and returns the parsed dataset.
func Load(path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			ds, err := l.Load(path)
			if err != nil {
				return nil, err
			}
			if ds.Name == "" {
				ds.Name = filepath.Base(path)
			}
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(jsonLoader{})
}
