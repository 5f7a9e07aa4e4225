// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// StoreFS is an implementation of the record storage that persists every
// bucket as one JSON document on disk.
//
// The layout is the following:
//
// - rootDir
//
//	|- <bucket-id-1>.json
//	\- <bucket-id-2>.json
//
// Documents are written to a temporary file and renamed into place, so a
// record is never observed half-written. The store-wide lock makes object
// appends atomic per bucket.
type StoreFS struct {
	rootDir string
	mtx     sync.RWMutex
}

// NewStoreFS creates an instance of the filesystem-backed record store,
// creating rootDir if needed.
func NewStoreFS(rootDir string) (*StoreFS, error) {
	if err := os.MkdirAll(rootDir, 0o700); err != nil {
		return nil, err
	}
	return &StoreFS{rootDir: rootDir}, nil
}

// CreateBucket stores a new bucket record.
func (s *StoreFS) CreateBucket(bucket Bucket) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, err := s.findByName(bucket.Name); err == nil {
		return ErrBucketExists
	}
	if bucket.Objects == nil {
		bucket.Objects = []Object{}
	}
	return s.writeBucket(bucket)
}

// ListBuckets returns the buckets owned by ownerID, in creation order.
// Creation order is reconstructed from the CreatedAt timestamps; buckets
// created in the same instant are ordered by name.
func (s *StoreFS) ListBuckets(ownerID string) ([]Bucket, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	buckets := []Bucket{}
	for _, b := range all {
		if b.OwnerID == ownerID {
			buckets = append(buckets, b)
		}
	}
	return buckets, nil
}

// GetBucket returns the bucket with the given id.
func (s *StoreFS) GetBucket(id string) (Bucket, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.readBucket(id)
}

// GetBucketByName looks a bucket up by its globally unique name.
func (s *StoreFS) GetBucketByName(name string) (Bucket, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.findByName(name)
}

// DeleteBucket removes the bucket record. Absent buckets are a no-op.
func (s *StoreFS) DeleteBucket(id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	err := os.Remove(s.bucketPath(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// AppendObject adds an object record to the end of the bucket's sequence.
func (s *StoreFS) AppendObject(bucketID string, obj Object) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	b, err := s.readBucket(bucketID)
	if err != nil {
		return err
	}
	b.Objects = append(b.Objects, obj)
	return s.writeBucket(b)
}

// RemoveObject drops the object with the given id from the bucket's sequence.
func (s *StoreFS) RemoveObject(bucketID, objectID string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	b, err := s.readBucket(bucketID)
	if err != nil {
		return err
	}
	b.Objects = removeObjectByID(b.Objects, objectID)
	return s.writeBucket(b)
}

func (s *StoreFS) bucketPath(id string) string {
	return filepath.Join(s.rootDir, id+".json")
}

func (s *StoreFS) readBucket(id string) (Bucket, error) {
	encoded, err := os.ReadFile(s.bucketPath(id))
	if os.IsNotExist(err) {
		return Bucket{}, ErrBucketNotFound
	}
	if err != nil {
		return Bucket{}, err
	}
	var b Bucket
	if err := json.Unmarshal(encoded, &b); err != nil {
		return Bucket{}, fmt.Errorf("corrupt bucket record %s: %w", id, err)
	}
	return b, nil
}

func (s *StoreFS) writeBucket(b Bucket) error {
	encoded, err := json.Marshal(b)
	if err != nil {
		return err
	}
	tempFile, err := os.CreateTemp(s.rootDir, "cloudstore-bucket")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())
	if _, err := tempFile.Write(encoded); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}
	return os.Rename(tempFile.Name(), s.bucketPath(b.ID))
}

func (s *StoreFS) readAll() ([]Bucket, error) {
	infos, err := os.ReadDir(s.rootDir)
	if err != nil {
		return nil, err
	}
	buckets := []Bucket{}
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			continue
		}
		b, err := s.readBucket(strings.TrimSuffix(info.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].CreatedAt.Equal(buckets[j].CreatedAt) {
			return buckets[i].Name < buckets[j].Name
		}
		return buckets[i].CreatedAt.Before(buckets[j].CreatedAt)
	})
	return buckets, nil
}

func (s *StoreFS) findByName(name string) (Bucket, error) {
	all, err := s.readAll()
	if err != nil {
		return Bucket{}, err
	}
	for _, b := range all {
		if b.Name == name {
			return b, nil
		}
	}
	return Bucket{}, ErrBucketNotFound
}
