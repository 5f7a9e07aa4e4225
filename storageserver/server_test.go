// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storageserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServerWithOptions(Options{
		StorageRoot: t.TempDir(),
		JWTSecret:   "test-secret",
		NoListener:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(server.Stop)
	return server
}

func doRequest(t *testing.T, server *Server, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	server.HTTPHandler().ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, server *Server, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return doRequest(t, server, method, path, token, bytes.NewReader(body), "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

// registerTestUser creates a principal and returns its session token.
func registerTestUser(t *testing.T, server *Server, email string) string {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[sessionResponse](t, rec).Token
}

func TestRootEndpoint(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("wrong status: %d", rec.Code)
	}
	if got := rec.Body.String(); got != "API is running..." {
		t.Errorf("wrong body: %q", got)
	}
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodGet, "/api/buckets"},
		{http.MethodPost, "/api/buckets"},
		{http.MethodDelete, "/api/buckets/some-id"},
		{http.MethodPost, "/api/buckets/some-id/files"},
		{http.MethodDelete, "/api/buckets/some-id/files/some-file"},
	}
	for _, p := range paths {
		rec := doRequest(t, server, p.method, p.path, "", strings.NewReader("{}"), "application/json")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: want 401, got %d", p.method, p.path, rec.Code)
		}
		rec = doRequest(t, server, p.method, p.path, "bogus-token", strings.NewReader("{}"), "application/json")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s with bad token: want 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestRegisterLoginProfile(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Admin", "email": "admin@cloudstore.com", "password": "admin123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decodeBody[sessionResponse](t, rec)
	require.NotEmpty(t, registered.Token)

	// duplicate registration conflicts
	rec = doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Admin", "email": "admin@cloudstore.com", "password": "admin123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@cloudstore.com", "password": "admin123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeBody[sessionResponse](t, rec)

	rec = doRequest(t, server, http.MethodGet, "/api/auth/profile", session.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeBody[map[string]string](t, rec)
	require.Equal(t, "admin@cloudstore.com", profile["email"])

	rec = doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@cloudstore.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSeedDemoUser(t *testing.T) {
	t.Parallel()
	server, err := NewServerWithOptions(Options{
		StorageRoot:  t.TempDir(),
		JWTSecret:    "test-secret",
		SeedDemoUser: true,
		NoListener:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Stop()

	rec := doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@cloudstore.com", "password": "admin123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("demo user should be able to log in, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewServerNoListener(t *testing.T) {
	t.Parallel()
	server := newTestServer(t)
	if url := server.URL(); url != "" {
		t.Errorf("unexpected non-empty url: %q", url)
	}
}

func TestNewServerExternalURL(t *testing.T) {
	t.Parallel()
	server, err := NewServerWithOptions(Options{
		StorageRoot: t.TempDir(),
		ExternalURL: "https://cloudstore.example.com",
		NoListener:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Stop()
	if url := server.URL(); url != "https://cloudstore.example.com" {
		t.Errorf("wrong url returned\nwant %q\ngot  %q", "https://cloudstore.example.com", url)
	}
}

func TestRequestLogging(t *testing.T) {
	t.Parallel()
	buf := new(bytes.Buffer)
	server, err := NewServerWithOptions(Options{
		StorageRoot: t.TempDir(),
		Writer:      buf,
		NoListener:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Stop()

	doRequest(t, server, http.MethodGet, "/", "", nil, "")
	if !strings.Contains(buf.String(), "GET / ") {
		t.Errorf("expected a request log line, got %q", buf.String())
	}
}

func TestNewServerListens(t *testing.T) {
	t.Parallel()
	server, err := NewServerWithOptions(Options{StorageRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Stop()

	resp, err := http.Get(fmt.Sprintf("%s/", server.URL()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("wrong status: %d", resp.StatusCode)
	}
}
