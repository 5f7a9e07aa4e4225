// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metadata provides the durable records for buckets and the objects
// they contain. Object bytes live elsewhere (see internal/blob); the records
// here only carry a ContentRef pointing at them.
package metadata

import "time"

// ContentKind tells where an object's bytes live.
type ContentKind string

const (
	// ContentFile means the bytes are stored on disk, at Path relative to
	// the content store root.
	ContentFile ContentKind = "file"

	// ContentInline means the record itself carries the payload in Raw,
	// verbatim as submitted by the client (normally a base64 data URL).
	// This representation predates the filesystem-backed store and is also
	// produced when an upload payload doesn't parse as a data URL.
	ContentInline ContentKind = "inline"
)

// ContentRef locates the bytes of a stored object. Exactly one representation
// is authoritative at read time: a file present at Path always wins over Raw.
type ContentRef struct {
	Kind ContentKind `json:"kind"`
	Path string      `json:"path,omitempty"`
	Raw  string      `json:"raw,omitempty"`
}

// Object is an immutable unit of content stored within a bucket. Re-uploading
// the same name appends a new object rather than replacing the old one.
type Object struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	MediaType  string     `json:"mediaType"`
	Size       int64      `json:"size"`
	Content    ContentRef `json:"content"`
	UploadedAt time.Time  `json:"uploadedAt"`
}

// Bucket is a named, owner-scoped container of objects. Names are unique
// across all owners, since they key the public retrieval path.
type Bucket struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	Objects   []Object  `json:"objects"`
}

// FindObject returns the first object with the given name, in upload order.
func (b *Bucket) FindObject(name string) (Object, bool) {
	for _, obj := range b.Objects {
		if obj.Name == name {
			return obj, true
		}
	}
	return Object{}, false
}

func (b *Bucket) clone() Bucket {
	c := *b
	c.Objects = make([]Object, len(b.Objects))
	copy(c.Objects, b.Objects)
	return c
}
