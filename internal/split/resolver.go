// Package split resolves episode annotation file lists from a dataset's
// split manifest.
package split

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest maps a split name to its ordered list of episode annotation file
// identifiers.
type Manifest map[string][]string

// NotFoundError reports a requested split absent from the manifest. It is
// fatal to that split only; sibling splits proceed.
type NotFoundError struct {
	Split string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("split %q not found in split file", e.Split)
}

// Load reads a split manifest from a JSON file.
func Load(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode split file: %w", err)
	}
	return m, nil
}

// Resolve returns the episode file list for name in manifest order. When
// limit > 0 the list is truncated to its first limit entries; truncation is
// always a prefix, never a sample.
func (m Manifest) Resolve(name string, limit int) ([]string, error) {
	files, ok := m[name]
	if !ok {
		return nil, &NotFoundError{Split: name}
	}
	if limit > 0 && limit < len(files) {
		files = files[:limit]
	}
	return files, nil
}
