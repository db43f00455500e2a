// Package pathutil provides utilities for safe path handling.
package pathutil

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath = errors.New("empty path")
	ErrNullBytes = errors.New("path contains null bytes")
)

// Clean rejects empty paths and paths with null bytes and returns the
// lexically cleaned path. Symlinks are kept as given, which is what an
// interpreter search path expects.
func Clean(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.Contains(path, "\x00") {
		return "", ErrNullBytes
	}
	return filepath.Clean(path), nil
}

// Abs is Clean followed by filepath.Abs.
func Abs(path string) (string, error) {
	cleaned, err := Clean(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(cleaned)
}
