// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storageserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudstore-dev/cloudstore/internal/auth"
	"github.com/cloudstore-dev/cloudstore/internal/storage"
)

type jsonResponse struct {
	status int
	header http.Header
	data   any
	err    error
}

type jsonHandler = func(r *http.Request) jsonResponse

func jsonToHTTPHandler(h jsonHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h(r)
		w.Header().Set("Content-Type", "application/json")
		for name, values := range resp.header {
			for _, value := range values {
				w.Header().Add(name, value)
			}
		}

		status := resp.getStatus()
		var data any
		if status > 399 {
			data = messageResponse{Message: resp.getErrorMessage(status)}
		} else {
			data = resp.data
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(data)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (r *jsonResponse) getStatus() int {
	if r.status > 0 {
		return r.status
	}
	if r.err != nil {
		return errToStatus(r.err)
	}
	return http.StatusOK
}

func (r *jsonResponse) getErrorMessage(status int) string {
	if r.err != nil {
		return r.err.Error()
	}
	return http.StatusText(status)
}

func errToStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrInvalidObjectName):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNameConflict), errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrContentMissing):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
