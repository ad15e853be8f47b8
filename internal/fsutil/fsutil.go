// Package fsutil provides small filesystem helpers for plugin discovery.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// Errors returned by FindSingleFile.
var (
	// ErrNotFound is returned when no file with the requested name exists
	// under the root.
	ErrNotFound = errors.New("file not found")

	// ErrMultipleFound is returned when the requested name matches more
	// than one file under the root.
	ErrMultipleFound = errors.New("multiple files found")
)

// FindSingleFile searches root recursively for a file named name and
// requires exactly one match. Zero matches return ErrNotFound; two or more
// return ErrMultipleFound, so an ambiguous plugin tree fails loudly instead
// of one match being picked silently.
func FindSingleFile(root, name string) (string, error) {
	matches, err := FilesNamed(root, name)
	if err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s under %s", ErrNotFound, name, root)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %d files named %s under %s", ErrMultipleFound, len(matches), name, root)
	}
}

// FilesNamed returns every file named name under root, in walk order.
func FilesNamed(root, name string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
