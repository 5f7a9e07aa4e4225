// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storageserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloudstore-dev/cloudstore/internal/auth"
)

type authenticatedHandler = func(r *http.Request, p auth.Principal) jsonResponse

// withAuth resolves the bearer credential before calling h. The principal
// never reaches the storage core as anything but its opaque id.
func (s *Server) withAuth(h authenticatedHandler) http.HandlerFunc {
	return jsonToHTTPHandler(func(r *http.Request) jsonResponse {
		p, err := s.users.Authenticate(bearerToken(r))
		if err != nil {
			return jsonResponse{err: err}
		}
		return h(r, p)
	})
}

// bearerToken extracts the credential from the Authorization header, falling
// back to the access_token query parameter for clients that can't set
// headers.
func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return r.URL.Query().Get("access_token")
}

type sessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (s *Server) registerUser(r *http.Request) jsonResponse {
	var data struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return jsonResponse{err: err, status: http.StatusBadRequest}
	}
	p, err := s.users.Register(data.Name, data.Email, data.Password)
	if err != nil {
		return jsonResponse{err: err}
	}
	token, err := s.users.Token(p)
	if err != nil {
		return jsonResponse{err: err}
	}
	s.logger.Info("registered user", "email", p.Email)
	return jsonResponse{
		status: http.StatusCreated,
		data:   sessionResponse{ID: p.ID, Name: p.Name, Email: p.Email, Token: token},
	}
}

func (s *Server) loginUser(r *http.Request) jsonResponse {
	var data struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return jsonResponse{err: err, status: http.StatusBadRequest}
	}
	p, token, err := s.users.Login(data.Email, data.Password)
	if err != nil {
		return jsonResponse{err: err}
	}
	return jsonResponse{data: sessionResponse{ID: p.ID, Name: p.Name, Email: p.Email, Token: token}}
}

func (s *Server) userProfile(r *http.Request, p auth.Principal) jsonResponse {
	return jsonResponse{data: p}
}
