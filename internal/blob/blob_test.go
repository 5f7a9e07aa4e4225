// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blob

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	content := "hello world"

	locator, n, err := store.Write("my-logs-2024", "a.txt", strings.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(content)) {
		t.Errorf("wrong byte count\nwant %d\ngot  %d", len(content), n)
	}
	if locator != "my-logs-2024/a.txt" {
		t.Errorf("wrong locator\nwant %q\ngot  %q", "my-logs-2024/a.txt", locator)
	}
	if !store.Exists("my-logs-2024", "a.txt") {
		t.Error("content should exist after write")
	}

	body, size, err := store.Open("my-logs-2024", "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()
	if size != int64(len(content)) {
		t.Errorf("wrong size\nwant %d\ngot  %d", len(content), size)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("wrong content\nwant %q\ngot  %q", content, data)
	}
}

func TestWriteCreatesBucketDirLazily(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 2; i++ {
		// repeated writes must not trip over the existing directory
		if _, _, err := store.Write("bkt", "obj", strings.NewReader("x")); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpenAbsent(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.Open("bkt", "nope")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
	if store.Exists("bkt", "nope") {
		t.Error("Exists should be false for absent content")
	}
}

func TestRejectsTraversalNames(t *testing.T) {
	store := newTestStore(t)
	bad := []string{"", ".", "..", "../etc", "a/b", `a\b`}
	for _, name := range bad {
		if _, _, err := store.Write("bkt", name, strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("object name %q: expected ErrInvalidName, got %v", name, err)
		}
		if _, _, err := store.Write(name, "obj", strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("bucket name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
	// dots inside a name are fine
	if _, _, err := store.Write("bkt", "archive.tar.gz", strings.NewReader("x")); err != nil {
		t.Errorf("dotted object name should be accepted, got %v", err)
	}
}

func TestRemoveBucket(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Write("bkt", "obj", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if err := store.RemoveBucket("bkt"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bkt")); !os.IsNotExist(err) {
		t.Errorf("bucket directory should be gone, stat err: %v", err)
	}
	// removing twice is fine
	if err := store.RemoveBucket("bkt"); err != nil {
		t.Fatal(err)
	}
}
