// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storageserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/cloudstore-dev/cloudstore/internal/auth"
	"github.com/cloudstore-dev/cloudstore/internal/storage"
)

// uploadObject accepts two shapes of request: a multipart form with a "file"
// field (raw bytes, the preferred path) and a JSON body carrying the content
// as a data URL, which is what the browser console submits.
func (s *Server) uploadObject(r *http.Request, p auth.Principal) jsonResponse {
	bucketID := mux.Vars(r)["bucketID"]

	var up storage.Upload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return jsonResponse{err: err, status: http.StatusBadRequest}
		}
		defer file.Close()
		up = storage.Upload{
			Name:      header.Filename,
			MediaType: header.Header.Get("Content-Type"),
			Size:      header.Size,
			Data:      file,
		}
		if name := r.FormValue("name"); name != "" {
			up.Name = name
		}
	} else {
		var data struct {
			Name    string `json:"name"`
			Type    string `json:"type"`
			Size    int64  `json:"size"`
			DataURL string `json:"dataUrl"`
		}
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			return jsonResponse{err: err, status: http.StatusBadRequest}
		}
		up = storage.Upload{
			Name:      data.Name,
			MediaType: data.Type,
			Size:      data.Size,
			DataURL:   data.DataURL,
		}
	}

	bucket, err := s.svc.UploadObject(p.ID, bucketID, up)
	if err != nil {
		return jsonResponse{err: err}
	}
	s.logger.Info("uploaded file", "bucket", bucket.Name, "file", up.Name)
	return jsonResponse{status: http.StatusCreated, data: s.newBucketResponse(bucket, r)}
}

func (s *Server) deleteObject(r *http.Request, p auth.Principal) jsonResponse {
	vars := mux.Vars(r)
	bucket, err := s.svc.DeleteObject(p.ID, vars["bucketID"], vars["fileID"])
	if err != nil {
		return jsonResponse{err: err}
	}
	s.logger.Info("deleted file", "bucket", bucket.Name, "id", vars["fileID"])
	return jsonResponse{data: s.newBucketResponse(bucket, r)}
}
