// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storageserver

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// downloadObject serves the raw bytes of one object. No authentication:
// anyone who knows the bucket and file names may fetch the content, which is
// the contract behind the URLs the console hands out.
func (s *Server) downloadObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	content, err := s.svc.RetrieveObject(vars["bucketName"], vars["fileName"])
	if err != nil {
		http.Error(w, err.Error(), errToStatus(err))
		return
	}
	defer content.Body.Close()

	w.Header().Set("Content-Type", content.MediaType)
	w.Header().Set("Content-Length", strconv.FormatInt(content.Size, 10))
	if _, err := io.Copy(w, content.Body); err != nil {
		s.logger.Warn("download interrupted", "bucket", vars["bucketName"], "file", vars["fileName"], "err", err)
	}
}
