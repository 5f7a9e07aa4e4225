// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metadata

import "sync"

// StoreMemory is an implementation of the record storage that keeps
// everything in memory.
type StoreMemory struct {
	mtx     sync.RWMutex
	buckets map[string]*Bucket // keyed by bucket id
	names   map[string]string  // bucket name -> bucket id
	order   []string           // bucket ids in creation order
}

// NewStoreMemory creates an empty in-memory store.
func NewStoreMemory() *StoreMemory {
	return &StoreMemory{
		buckets: make(map[string]*Bucket),
		names:   make(map[string]string),
	}
}

// CreateBucket stores a new bucket record.
func (s *StoreMemory) CreateBucket(bucket Bucket) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, taken := s.names[bucket.Name]; taken {
		return ErrBucketExists
	}
	if bucket.Objects == nil {
		bucket.Objects = []Object{}
	}
	s.buckets[bucket.ID] = &bucket
	s.names[bucket.Name] = bucket.ID
	s.order = append(s.order, bucket.ID)
	return nil
}

// ListBuckets returns the buckets owned by ownerID, in creation order.
func (s *StoreMemory) ListBuckets(ownerID string) ([]Bucket, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	buckets := []Bucket{}
	for _, id := range s.order {
		if b, ok := s.buckets[id]; ok && b.OwnerID == ownerID {
			buckets = append(buckets, b.clone())
		}
	}
	return buckets, nil
}

// GetBucket returns the bucket with the given id.
func (s *StoreMemory) GetBucket(id string) (Bucket, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	b, ok := s.buckets[id]
	if !ok {
		return Bucket{}, ErrBucketNotFound
	}
	return b.clone(), nil
}

// GetBucketByName looks a bucket up by its globally unique name.
func (s *StoreMemory) GetBucketByName(name string) (Bucket, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	id, ok := s.names[name]
	if !ok {
		return Bucket{}, ErrBucketNotFound
	}
	return s.buckets[id].clone(), nil
}

// DeleteBucket removes the bucket record. Absent buckets are a no-op.
func (s *StoreMemory) DeleteBucket(id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	b, ok := s.buckets[id]
	if !ok {
		return nil
	}
	delete(s.names, b.Name)
	delete(s.buckets, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// AppendObject adds an object record to the end of the bucket's sequence.
// The store-wide lock makes the append atomic per bucket.
func (s *StoreMemory) AppendObject(bucketID string, obj Object) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	b, ok := s.buckets[bucketID]
	if !ok {
		return ErrBucketNotFound
	}
	b.Objects = append(b.Objects, obj)
	return nil
}

// RemoveObject drops the object with the given id from the bucket's sequence.
func (s *StoreMemory) RemoveObject(bucketID, objectID string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	b, ok := s.buckets[bucketID]
	if !ok {
		return ErrBucketNotFound
	}
	b.Objects = removeObjectByID(b.Objects, objectID)
	return nil
}

func removeObjectByID(objects []Object, objectID string) []Object {
	kept := objects[:0]
	for _, o := range objects {
		if o.ID != objectID {
			kept = append(kept, o)
		}
	}
	return kept
}
