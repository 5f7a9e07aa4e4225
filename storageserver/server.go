// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storageserver provides the HTTP surface of cloudstore, a simplified
// object-storage console backend: authenticated bucket and file management
// plus an unauthenticated public retrieval path.
package storageserver

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/fsouza/slognil"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/cloudstore-dev/cloudstore/internal/auth"
	"github.com/cloudstore-dev/cloudstore/internal/blob"
	"github.com/cloudstore-dev/cloudstore/internal/metadata"
	"github.com/cloudstore-dev/cloudstore/internal/storage"
)

// Uploads may carry large binaries encoded as data URLs, so the body limit is
// deliberately generous.
const maxBodyBytes = 500 << 20

// Options are used to configure the server.
type Options struct {
	// StorageRoot is the directory object bytes are written to. When
	// empty, a temporary directory is created.
	StorageRoot string

	// MetadataRoot, when set, persists bucket records as JSON documents
	// under this directory. When empty, records are kept in memory.
	MetadataRoot string

	// ExternalURL is the address the server advertises in public file
	// URLs. When empty, the URL is derived from each request.
	ExternalURL string

	// JWTSecret signs session tokens. When empty, a random secret is
	// generated, which invalidates tokens across restarts.
	JWTSecret string

	// TokenTTL is the session token lifetime. Defaults to 30 days.
	TokenTTL time.Duration

	// AllowedCORSHeaders are added to the CORS allowlist next to
	// Content-Type and Authorization.
	AllowedCORSHeaders []string

	// Writer receives one line per handled request, in Apache combined
	// log format. When nil, request logging is disabled.
	Writer io.Writer

	// Logger is used for application logs. When nil, logs are discarded.
	Logger *slog.Logger

	// SeedDemoUser registers the demo principal admin@cloudstore.com
	// (password admin123) on startup.
	SeedDemoUser bool

	// NoListener makes the server not listen on a socket. Use HTTPHandler
	// to serve it on a listener of your own.
	NoListener bool
}

// Server is the cloudstore server.
type Server struct {
	svc         *storage.Service
	users       *auth.Service
	mux         *mux.Router
	handler     http.Handler
	ts          *httptest.Server
	externalURL string
	logger      *slog.Logger
}

// NewServer creates a server with in-memory records and a temporary content
// directory, listening on a random port. Mainly useful in tests; production
// callers should use NewServerWithOptions.
func NewServer() *Server {
	server, err := NewServerWithOptions(Options{})
	if err != nil {
		panic(err)
	}
	return server
}

// NewServerWithOptions creates a new server with the given options.
func NewServerWithOptions(options Options) (*Server, error) {
	logger := options.Logger
	if logger == nil {
		logger = slognil.NewLogger()
	}

	storageRoot := options.StorageRoot
	if storageRoot == "" {
		dir, err := os.MkdirTemp("", "cloudstore")
		if err != nil {
			return nil, err
		}
		storageRoot = dir
	}
	blobs, err := blob.NewStore(storageRoot)
	if err != nil {
		return nil, err
	}

	var records metadata.Store
	if options.MetadataRoot != "" {
		records, err = metadata.NewStoreFS(options.MetadataRoot)
		if err != nil {
			return nil, err
		}
	} else {
		records = metadata.NewStoreMemory()
	}

	secret := []byte(options.JWTSecret)
	if len(secret) == 0 {
		secret = randomSecret()
		logger.Warn("no JWT secret configured, generated an ephemeral one")
	}
	ttl := options.TokenTTL
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}

	s := Server{
		svc:         storage.New(records, blobs, logger),
		users:       auth.NewService(secret, ttl),
		externalURL: options.ExternalURL,
		logger:      logger,
	}
	if options.SeedDemoUser {
		if _, err := s.users.Register("Admin", "admin@cloudstore.com", "admin123"); err != nil {
			logger.Warn("could not seed demo user", "err", err)
		}
	}

	s.buildMuxer()
	s.handler = s.buildHandler(options)
	if !options.NoListener {
		s.ts = httptest.NewServer(s.handler)
	}
	return &s, nil
}

func (s *Server) buildMuxer() {
	s.mux = mux.NewRouter()
	s.mux.Path("/").Methods(http.MethodGet).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "API is running...")
	})

	r := s.mux.PathPrefix("/api").Subrouter()
	r.Path("/auth/register").Methods(http.MethodPost).HandlerFunc(jsonToHTTPHandler(s.registerUser))
	r.Path("/auth/login").Methods(http.MethodPost).HandlerFunc(jsonToHTTPHandler(s.loginUser))
	r.Path("/auth/profile").Methods(http.MethodGet).HandlerFunc(s.withAuth(s.userProfile))

	r.Path("/buckets").Methods(http.MethodGet).HandlerFunc(s.withAuth(s.listBuckets))
	r.Path("/buckets").Methods(http.MethodPost).HandlerFunc(s.withAuth(s.createBucket))
	r.Path("/buckets/{bucketID}").Methods(http.MethodDelete).HandlerFunc(s.withAuth(s.deleteBucket))
	r.Path("/buckets/{bucketID}/files").Methods(http.MethodPost).HandlerFunc(s.withAuth(s.uploadObject))
	r.Path("/buckets/{bucketID}/files/{fileID}").Methods(http.MethodDelete).HandlerFunc(s.withAuth(s.deleteObject))

	// public retrieval has no auth and serves raw bytes, not JSON
	r.Path("/public/{bucketName}/{fileName:.+}").Methods(http.MethodGet).HandlerFunc(s.downloadObject)
}

func (s *Server) buildHandler(options Options) http.Handler {
	allowedHeaders := append([]string{"Content-Type", "Authorization"}, options.AllowedCORSHeaders...)
	handler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders(allowedHeaders),
	)(s.mux)
	if options.Writer != nil {
		handler = handlers.CombinedLoggingHandler(options.Writer, handler)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		handler.ServeHTTP(w, r)
	})
}

// HTTPHandler returns the server's HTTP handler, for serving on a listener
// managed by the caller.
func (s *Server) HTTPHandler() http.Handler {
	return s.handler
}

// URL returns the server URL.
func (s *Server) URL() string {
	if s.externalURL != "" {
		return s.externalURL
	}
	if s.ts != nil {
		return s.ts.URL
	}
	return ""
}

// Stop stops the server, closing all connections.
func (s *Server) Stop() {
	if s.ts != nil {
		s.ts.Close()
	}
}

func randomSecret() []byte {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		panic(err)
	}
	secret := make([]byte, hex.EncodedLen(len(raw)))
	hex.Encode(secret, raw)
	return secret
}
