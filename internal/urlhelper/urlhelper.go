// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package urlhelper derives the externally visible API base URL from an
// incoming request, used when no external URL is configured.
package urlhelper

import (
	"fmt"
	"net/http"
	"strings"
)

// GetBaseURL returns the base URL (scheme + host) for the request, honoring
// X-Forwarded-Proto and X-Forwarded-Host when the server sits behind a proxy.
// Returns an empty string if the host cannot be determined.
func GetBaseURL(r *http.Request) string {
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(proto))
	} else if r.TLS == nil {
		scheme = "http"
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

// APIBase returns the prefix under which the API is mounted for the request,
// e.g. "http://localhost:5000/api". externalURL wins when configured.
func APIBase(externalURL string, r *http.Request) string {
	if externalURL != "" {
		return strings.TrimRight(externalURL, "/") + "/api"
	}
	base := GetBaseURL(r)
	if base == "" {
		return "/api"
	}
	return base + "/api"
}
