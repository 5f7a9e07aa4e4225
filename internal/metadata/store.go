// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metadata

import "errors"

var (
	// ErrBucketExists reports a bucket name that is already taken, by any
	// owner.
	ErrBucketExists = errors.New("bucket name already taken")

	// ErrBucketNotFound reports a bucket id with no record.
	ErrBucketNotFound = errors.New("bucket not found")
)

// Store is the generic interface for implementing the bucket/object record
// storage of the server.
//
// Implementations must make AppendObject and RemoveObject atomic per bucket:
// concurrent uploads to the same bucket may not lose appends.
type Store interface {
	// CreateBucket stores a new bucket record. It fails with
	// ErrBucketExists when the name is taken, regardless of owner.
	CreateBucket(bucket Bucket) error

	// ListBuckets returns the buckets owned by ownerID, in creation order.
	ListBuckets(ownerID string) ([]Bucket, error)

	// GetBucket returns the bucket with the given id, or ErrBucketNotFound.
	GetBucket(id string) (Bucket, error)

	// GetBucketByName looks a bucket up by its globally unique name. Used
	// by the public retrieval path, so it is owner-agnostic.
	GetBucketByName(name string) (Bucket, error)

	// DeleteBucket removes the bucket record and its contained object
	// records. Deleting an absent bucket is not an error.
	DeleteBucket(id string) error

	// AppendObject adds an object record to the end of the bucket's
	// sequence. Fails with ErrBucketNotFound if the bucket is absent.
	AppendObject(bucketID string, obj Object) error

	// RemoveObject drops the object with the given id from the bucket's
	// sequence. Removing an absent object is not an error.
	RemoveObject(bucketID, objectID string) error
}
