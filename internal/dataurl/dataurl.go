// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataurl parses and produces base64 data URLs, the inline content
// encoding accepted on upload and kept as the legacy storage representation.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotDataURL reports a payload that is not a base64 data URL.
var ErrNotDataURL = errors.New("not a base64 data URL")

// strictRegexp is the upload-time grammar: a bare media type, no parameters.
// It matches what FileReader.readAsDataURL produces in browsers.
var strictRegexp = regexp.MustCompile(`^data:([a-zA-Z0-9]+/[a-zA-Z0-9-.+]+);base64,(.+)$`)

// DataURL is a decoded payload.
type DataURL struct {
	MediaType string
	Data      []byte
}

// Decode parses a data URL using the strict grammar. Payloads that fail here
// are stored verbatim as inline content instead of being written to disk.
func Decode(s string) (DataURL, error) {
	m := strictRegexp.FindStringSubmatch(s)
	if m == nil {
		return DataURL{}, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return DataURL{}, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	return DataURL{MediaType: m[1], Data: data}, nil
}

// DecodeLenient parses a data URL accepting any media type, including ones
// with parameters such as charset. The read path uses it so that records
// stored verbatim under the strict gate can still be served.
func DecodeLenient(s string) (DataURL, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURL{}, ErrNotDataURL
	}
	mediaType, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return DataURL{}, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return DataURL{}, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return DataURL{MediaType: mediaType, Data: data}, nil
}

// Encode produces a base64 data URL for the given content.
func Encode(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}
