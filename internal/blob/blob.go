// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blob persists raw object bytes on disk.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidName reports a bucket or object name that cannot be used as a
// file name.
var ErrInvalidName = errors.New("name not usable as a storage path")

// Store writes and reads object content on the local filesystem.
//
// The layout is the following:
//
// - rootDir
//
//	|- bucket1
//	\- bucket2
//	  |- object1
//	  \- object2
//
// Names are used verbatim as directory and file names, so every name is
// validated against path traversal before a path is derived from it.
type Store struct {
	rootDir string
}

// NewStore creates a content store rooted at rootDir, creating the directory
// if needed.
func NewStore(rootDir string) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0o700); err != nil {
		return nil, err
	}
	return &Store{rootDir: rootDir}, nil
}

// ValidName reports whether name is safe to use as a single path element.
// Empty names, dot segments and names containing path separators are not.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

// Write stores the content under <root>/<bucket>/<object>, creating the
// bucket directory lazily. It returns the locator path (relative to the
// root, slash-separated) and the number of bytes written.
//
// The content goes to a temporary file first and is renamed into place, so
// concurrent writers on the same path never expose partial content.
func (s *Store) Write(bucketName, objectName string, content io.Reader) (string, int64, error) {
	fullPath, err := s.path(bucketName, objectName)
	if err != nil {
		return "", 0, err
	}
	// MkdirAll succeeds when the directory already exists, which keeps
	// concurrent uploads to the same bucket safe.
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o700); err != nil {
		return "", 0, err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(fullPath), "cloudstore-object")
	if err != nil {
		return "", 0, err
	}
	defer os.Remove(tempFile.Name())

	written, err := io.Copy(tempFile, content)
	if err != nil {
		tempFile.Close()
		return "", 0, err
	}
	if err := tempFile.Close(); err != nil {
		return "", 0, err
	}
	if err := os.Chmod(tempFile.Name(), 0o600); err != nil {
		return "", 0, err
	}
	if err := os.Rename(tempFile.Name(), fullPath); err != nil {
		return "", 0, err
	}
	return path.Join(bucketName, objectName), written, nil
}

// Open returns a reader over the stored content and its size. The caller is
// expected to close the reader. Absent content reports os.ErrNotExist.
func (s *Store) Open(bucketName, objectName string) (io.ReadCloser, int64, error) {
	fullPath, err := s.path(bucketName, objectName)
	if err != nil {
		return nil, 0, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, 0, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	return file, info.Size(), nil
}

// Exists reports whether content is stored for the given bucket and object.
func (s *Store) Exists(bucketName, objectName string) bool {
	fullPath, err := s.path(bucketName, objectName)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the stored content for one object.
func (s *Store) Remove(bucketName, objectName string) error {
	fullPath, err := s.path(bucketName, objectName)
	if err != nil {
		return err
	}
	return os.Remove(fullPath)
}

// RemoveBucket deletes the bucket directory and everything in it. An absent
// directory is not an error.
func (s *Store) RemoveBucket(bucketName string) error {
	if !ValidName(bucketName) {
		return fmt.Errorf("%w: %q", ErrInvalidName, bucketName)
	}
	return os.RemoveAll(filepath.Join(s.rootDir, bucketName))
}

func (s *Store) path(bucketName, objectName string) (string, error) {
	if !ValidName(bucketName) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, bucketName)
	}
	if !ValidName(objectName) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, objectName)
	}
	return filepath.Join(s.rootDir, bucketName, objectName), nil
}
