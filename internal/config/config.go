// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides utilities for managing cloudstore's configuration
// using command line flags, with environment variables as defaults.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudstore-dev/cloudstore/storageserver"
)

const (
	filesystemBackend = "filesystem"
	memoryBackend     = "memory"
	defaultPort       = 5000
)

type Config struct {
	Host     string
	Port     uint
	LogLevel slog.Level

	backend            string
	storageRoot        string
	metadataRoot       string
	externalURL        string
	jwtSecret          string
	tokenTTL           time.Duration
	allowedCORSHeaders []string
	seedDemoUser       bool
}

func nopConverter(s string) (string, error) {
	return s, nil
}

// envVarOrDefault retrieves an environment variable value and converts it to
// type T, or returns the default value if the environment variable is not
// set. Returns an error if the variable is set but cannot be converted.
func envVarOrDefault[T string | uint | bool](key string, defaultValue T, convert func(string) (T, error)) (T, error) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		converted, err := convert(val)
		if err != nil {
			return defaultValue, fmt.Errorf("invalid value for environment variable %s=%q: %w", key, val, err)
		}
		return converted, nil
	}
	return defaultValue, nil
}

// Load parses the given arguments list and returns a config object (and/or an
// error in case of failures).
func Load(args []string) (Config, error) {
	var cfg Config
	var allowedCORSHeaders string
	var logLevel string

	parseUint := func(s string) (uint, error) {
		val, err := strconv.ParseUint(s, 10, 32)
		return uint(val), err
	}

	envPort, err := envVarOrDefault("CLOUDSTORE_PORT", uint(defaultPort), parseUint)
	if err != nil {
		return cfg, err
	}
	envSeed, err := envVarOrDefault("CLOUDSTORE_SEED", false, strconv.ParseBool)
	if err != nil {
		return cfg, err
	}

	// nopConverter never returns an error, so the error value is safe to ignore.
	backend, _ := envVarOrDefault("CLOUDSTORE_BACKEND", filesystemBackend, nopConverter)
	storageRoot, _ := envVarOrDefault("CLOUDSTORE_STORAGE_ROOT", "uploads", nopConverter)
	metadataRoot, _ := envVarOrDefault("CLOUDSTORE_METADATA_ROOT", "metadata", nopConverter)
	host, _ := envVarOrDefault("CLOUDSTORE_HOST", "0.0.0.0", nopConverter)
	externalURL, _ := envVarOrDefault("CLOUDSTORE_EXTERNAL_URL", "", nopConverter)
	jwtSecret, _ := envVarOrDefault("CLOUDSTORE_JWT_SECRET", "", nopConverter)
	tokenTTL, _ := envVarOrDefault("CLOUDSTORE_TOKEN_TTL", "720h", nopConverter)
	corsHeaders, _ := envVarOrDefault("CLOUDSTORE_CORS_HEADERS", "", nopConverter)
	logLevelDefault, _ := envVarOrDefault("CLOUDSTORE_LOG_LEVEL", "info", nopConverter)

	fs := flag.NewFlagSet("cloudstore", flag.ContinueOnError)
	fs.StringVar(&cfg.backend, "backend", backend, "metadata backend (memory or filesystem)")
	fs.StringVar(&cfg.storageRoot, "storage-root", storageRoot, "directory for object content. created if it doesn't exist")
	fs.StringVar(&cfg.metadataRoot, "metadata-root", metadataRoot, "directory for bucket records (required for the filesystem backend)")
	fs.StringVar(&cfg.Host, "host", host, "host to bind to")
	fs.UintVar(&cfg.Port, "port", envPort, "port to bind to")
	fs.StringVar(&cfg.externalURL, "external-url", externalURL, "optional external URL used in public file links. Defaults to the address of each request")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", jwtSecret, "secret for signing session tokens. A random one is generated when empty")
	ttlFlag := fs.String("token-ttl", tokenTTL, "session token lifetime, as a Go duration")
	fs.StringVar(&allowedCORSHeaders, "cors-headers", corsHeaders, "comma separated list of headers to add to the CORS allowlist")
	fs.BoolVar(&cfg.seedDemoUser, "seed", envSeed, "create the demo account admin@cloudstore.com on startup")
	fs.StringVar(&logLevel, "log-level", logLevelDefault, "level for logging. Options: debug, info, warn, and error")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.tokenTTL, err = time.ParseDuration(*ttlFlag)
	if err != nil {
		return cfg, fmt.Errorf("invalid token-ttl %q: %w", *ttlFlag, err)
	}

	levels := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
	}
	if level, ok := levels[logLevel]; ok {
		cfg.LogLevel = level
	} else {
		return cfg, fmt.Errorf("invalid log level %q", logLevel)
	}

	if allowedCORSHeaders != "" {
		cfg.allowedCORSHeaders = strings.Split(allowedCORSHeaders, ",")
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.backend != memoryBackend && c.backend != filesystemBackend {
		return fmt.Errorf(`invalid backend %q, must be either "memory" or "filesystem"`, c.backend)
	}
	if c.backend == filesystemBackend && c.metadataRoot == "" {
		return fmt.Errorf("backend %q requires the metadata-root to be defined", c.backend)
	}
	if c.storageRoot == "" {
		return fmt.Errorf("storage-root must be defined")
	}
	if c.Port > math.MaxUint16 {
		return fmt.Errorf("port %d is too high, maximum value is %d", c.Port, math.MaxUint16)
	}
	if c.tokenTTL <= 0 {
		return fmt.Errorf("token-ttl must be positive")
	}
	return nil
}

// ToServerOptions maps the configuration to options for the storage server.
func (c *Config) ToServerOptions(logger *slog.Logger) storageserver.Options {
	metadataRoot := c.metadataRoot
	if c.backend == memoryBackend {
		metadataRoot = ""
	}
	return storageserver.Options{
		StorageRoot:        c.storageRoot,
		MetadataRoot:       metadataRoot,
		ExternalURL:        strings.TrimRight(c.externalURL, "/"),
		JWTSecret:          c.jwtSecret,
		TokenTTL:           c.tokenTTL,
		AllowedCORSHeaders: c.allowedCORSHeaders,
		Writer:             &slogWriter{logger: logger, level: slog.LevelInfo},
		Logger:             logger,
		SeedDemoUser:       c.seedDemoUser,
		NoListener:         true,
	}
}
