// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage orchestrates the record store and the content store. It
// enforces ownership, decides which content representation an upload gets and
// resolves the right byte source at read time.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cloudstore-dev/cloudstore/internal/blob"
	"github.com/cloudstore-dev/cloudstore/internal/dataurl"
	"github.com/cloudstore-dev/cloudstore/internal/metadata"
)

var (
	// ErrInvalidName reports a bucket name that fails the naming rule.
	ErrInvalidName = errors.New("invalid bucket name")

	// ErrInvalidObjectName reports an object name that cannot be stored.
	ErrInvalidObjectName = errors.New("invalid object name")

	// ErrNotFound collapses "does not exist" and "not owned by the caller"
	// into one signal, so callers can't probe for other owners' buckets.
	ErrNotFound = errors.New("not found")

	// ErrNameConflict reports a bucket name that is already taken.
	ErrNameConflict = errors.New("bucket name already taken")

	// ErrContentMissing reports an object record with no resolvable byte
	// source.
	ErrContentMissing = errors.New("file content missing")
)

// Bucket names are slugs: 3-63 lowercase letters, digits, hyphens and dots,
// not starting or ending with a hyphen.
var bucketNameRegexp = regexp.MustCompile(`^[a-z0-9.-]{3,63}$`)

// Service implements the storage operations on top of a record store and a
// content store.
type Service struct {
	meta   metadata.Store
	blobs  *blob.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service.
func New(meta metadata.Store, blobs *blob.Store, logger *slog.Logger) *Service {
	return &Service{meta: meta, blobs: blobs, logger: logger, now: time.Now}
}

// CreateBucket validates the name and stores a new bucket owned by ownerID.
func (s *Service) CreateBucket(ownerID, name, region string) (metadata.Bucket, error) {
	if err := validateBucketName(name); err != nil {
		return metadata.Bucket{}, err
	}
	bucket := metadata.Bucket{
		ID:        uuid.NewString(),
		Name:      name,
		Region:    region,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
		Objects:   []metadata.Object{},
	}
	err := s.meta.CreateBucket(bucket)
	if errors.Is(err, metadata.ErrBucketExists) {
		return metadata.Bucket{}, ErrNameConflict
	}
	if err != nil {
		return metadata.Bucket{}, err
	}
	return bucket, nil
}

// ListBuckets returns the caller's buckets in creation order.
func (s *Service) ListBuckets(ownerID string) ([]metadata.Bucket, error) {
	return s.meta.ListBuckets(ownerID)
}

// DeleteBucket removes the bucket record and, best effort, its stored bytes.
// Content cleanup failures are logged and never fail the request; the record
// is the source of truth and a leaked directory is harmless.
func (s *Service) DeleteBucket(ownerID, bucketID string) error {
	bucket, err := s.ownedBucket(ownerID, bucketID)
	if err != nil {
		return err
	}
	if err := s.meta.DeleteBucket(bucketID); err != nil {
		return err
	}
	if err := s.blobs.RemoveBucket(bucket.Name); err != nil {
		s.logger.Warn("leaving bucket content behind", "bucket", bucket.Name, "err", err)
	}
	return nil
}

// Upload describes one incoming object. Content arrives either as raw bytes
// (Data, the preferred path) or as an inline-encoded string (DataURL).
type Upload struct {
	Name      string
	MediaType string
	Size      int64
	Data      io.Reader
	DataURL   string
}

// UploadObject stores a new object in the bucket and returns the updated
// bucket. The record is appended only after the content write succeeded, so a
// failed upload never leaves a partial record.
//
// A DataURL payload that doesn't match the strict data-URL grammar is kept
// verbatim as the object's inline locator and no filesystem write happens.
func (s *Service) UploadObject(ownerID, bucketID string, up Upload) (metadata.Bucket, error) {
	bucket, err := s.ownedBucket(ownerID, bucketID)
	if err != nil {
		return metadata.Bucket{}, err
	}
	if !blob.ValidName(up.Name) {
		return metadata.Bucket{}, fmt.Errorf("%w: %q", ErrInvalidObjectName, up.Name)
	}

	obj := metadata.Object{
		ID:         uuid.NewString(),
		Name:       up.Name,
		MediaType:  up.MediaType,
		Size:       up.Size,
		UploadedAt: s.now().UTC(),
	}

	switch {
	case up.Data != nil:
		locator, written, err := s.blobs.Write(bucket.Name, up.Name, up.Data)
		if err != nil {
			return metadata.Bucket{}, err
		}
		obj.Size = written
		obj.Content = metadata.ContentRef{Kind: metadata.ContentFile, Path: locator}
	default:
		decoded, err := dataurl.Decode(up.DataURL)
		if err != nil {
			// Degraded mode: the payload stays in the record as
			// submitted and is decoded leniently at read time.
			obj.Content = metadata.ContentRef{Kind: metadata.ContentInline, Raw: up.DataURL}
			break
		}
		locator, written, err := s.blobs.Write(bucket.Name, up.Name, bytes.NewReader(decoded.Data))
		if err != nil {
			return metadata.Bucket{}, err
		}
		obj.Size = written
		obj.Content = metadata.ContentRef{Kind: metadata.ContentFile, Path: locator}
		if obj.MediaType == "" {
			obj.MediaType = decoded.MediaType
		}
	}
	if obj.MediaType == "" {
		obj.MediaType = "application/octet-stream"
	}

	if err := s.meta.AppendObject(bucketID, obj); err != nil {
		return metadata.Bucket{}, err
	}
	return s.meta.GetBucket(bucketID)
}

// DeleteObject removes the object record and returns the updated bucket. The
// stored bytes are removed best effort, mirroring DeleteBucket.
func (s *Service) DeleteObject(ownerID, bucketID, objectID string) (metadata.Bucket, error) {
	bucket, err := s.ownedBucket(ownerID, bucketID)
	if err != nil {
		return metadata.Bucket{}, err
	}
	var removed *metadata.Object
	for i := range bucket.Objects {
		if bucket.Objects[i].ID == objectID {
			removed = &bucket.Objects[i]
			break
		}
	}
	if err := s.meta.RemoveObject(bucketID, objectID); err != nil {
		return metadata.Bucket{}, err
	}
	if removed != nil && removed.Content.Kind == metadata.ContentFile {
		if err := s.blobs.Remove(bucket.Name, removed.Name); err != nil {
			s.logger.Warn("leaving object content behind", "bucket", bucket.Name, "object", removed.Name, "err", err)
		}
	}
	return s.meta.GetBucket(bucketID)
}

// Content is a resolved byte source for one object. Callers must close Body.
type Content struct {
	MediaType string
	Size      int64
	Body      io.ReadCloser
}

// RetrieveObject resolves an object by bucket and object name, with no
// authentication: anyone holding both names may read the content.
//
// Resolution order: bucket record, object record, filesystem content, inline
// locator. Filesystem presence always wins over an inline locator.
func (s *Service) RetrieveObject(bucketName, objectName string) (Content, error) {
	bucket, err := s.meta.GetBucketByName(bucketName)
	if err != nil {
		return Content{}, fmt.Errorf("bucket not found: %w", ErrNotFound)
	}
	obj, ok := bucket.FindObject(objectName)
	if !ok {
		return Content{}, fmt.Errorf("file not found: %w", ErrNotFound)
	}
	if s.blobs.Exists(bucket.Name, obj.Name) {
		body, size, err := s.blobs.Open(bucket.Name, obj.Name)
		if err != nil {
			return Content{}, err
		}
		return Content{MediaType: obj.MediaType, Size: size, Body: body}, nil
	}
	if obj.Content.Kind == metadata.ContentInline {
		decoded, err := dataurl.DecodeLenient(obj.Content.Raw)
		if err == nil {
			return Content{
				MediaType: decoded.MediaType,
				Size:      int64(len(decoded.Data)),
				Body:      io.NopCloser(bytes.NewReader(decoded.Data)),
			}, nil
		}
	}
	return Content{}, ErrContentMissing
}

// PublicPath returns the path portion of an object's public retrieval URL,
// relative to the API base.
func PublicPath(bucketName, objectName string) string {
	return fmt.Sprintf("/public/%s/%s", url.PathEscape(bucketName), url.PathEscape(objectName))
}

func (s *Service) ownedBucket(ownerID, bucketID string) (metadata.Bucket, error) {
	bucket, err := s.meta.GetBucket(bucketID)
	if err != nil || bucket.OwnerID != ownerID {
		return metadata.Bucket{}, fmt.Errorf("bucket not found or unauthorized: %w", ErrNotFound)
	}
	return bucket, nil
}

func validateBucketName(name string) error {
	if !bucketNameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
