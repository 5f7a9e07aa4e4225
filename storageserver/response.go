// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storageserver

import (
	"net/http"
	"time"

	"github.com/cloudstore-dev/cloudstore/internal/metadata"
	"github.com/cloudstore-dev/cloudstore/internal/storage"
	"github.com/cloudstore-dev/cloudstore/internal/urlhelper"
)

type bucketResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Region    string           `json:"region"`
	CreatedAt time.Time        `json:"createdAt"`
	Files     []objectResponse `json:"files"`
}

type objectResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// newBucketResponse renders a bucket with the public URL of each file. URLs
// are reconstructed on every response rather than persisted, so they always
// reflect the address the server is currently reachable at.
func (s *Server) newBucketResponse(b metadata.Bucket, r *http.Request) bucketResponse {
	apiBase := urlhelper.APIBase(s.externalURL, r)
	resp := bucketResponse{
		ID:        b.ID,
		Name:      b.Name,
		Region:    b.Region,
		CreatedAt: b.CreatedAt,
		Files:     make([]objectResponse, len(b.Objects)),
	}
	for i, obj := range b.Objects {
		resp.Files[i] = objectResponse{
			ID:         obj.ID,
			Name:       obj.Name,
			Type:       obj.MediaType,
			Size:       obj.Size,
			URL:        apiBase + storage.PublicPath(b.Name, obj.Name),
			UploadedAt: obj.UploadedAt,
		}
	}
	return resp
}

func (s *Server) newListBucketsResponse(buckets []metadata.Bucket, r *http.Request) []bucketResponse {
	resp := make([]bucketResponse, len(buckets))
	for i, b := range buckets {
		resp[i] = s.newBucketResponse(b, r)
	}
	return resp
}
