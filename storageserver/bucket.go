// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storageserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cloudstore-dev/cloudstore/internal/auth"
)

func (s *Server) listBuckets(r *http.Request, p auth.Principal) jsonResponse {
	buckets, err := s.svc.ListBuckets(p.ID)
	if err != nil {
		return jsonResponse{err: err}
	}
	return jsonResponse{data: s.newListBucketsResponse(buckets, r)}
}

func (s *Server) createBucket(r *http.Request, p auth.Principal) jsonResponse {
	var data struct {
		Name   string `json:"name"`
		Region string `json:"region"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return jsonResponse{err: err, status: http.StatusBadRequest}
	}
	bucket, err := s.svc.CreateBucket(p.ID, data.Name, data.Region)
	if err != nil {
		return jsonResponse{err: err}
	}
	s.logger.Info("created bucket", "bucket", bucket.Name, "region", bucket.Region)
	return jsonResponse{status: http.StatusCreated, data: s.newBucketResponse(bucket, r)}
}

func (s *Server) deleteBucket(r *http.Request, p auth.Principal) jsonResponse {
	bucketID := mux.Vars(r)["bucketID"]
	if err := s.svc.DeleteBucket(p.ID, bucketID); err != nil {
		return jsonResponse{err: err}
	}
	s.logger.Info("deleted bucket", "id", bucketID)
	return jsonResponse{data: messageResponse{Message: "Bucket removed"}}
}
