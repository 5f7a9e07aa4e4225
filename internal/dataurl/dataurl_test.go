// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataurl

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		input         string
		wantErr       bool
		wantMediaType string
		wantData      string
	}{
		{
			name:          "plain text",
			input:         "data:text/plain;base64,aGVsbG8gd29ybGQ=",
			wantMediaType: "text/plain",
			wantData:      "hello world",
		},
		{
			name:          "media type with plus",
			input:         "data:image/svg+xml;base64,PHN2Zy8+",
			wantMediaType: "image/svg+xml",
			wantData:      "<svg/>",
		},
		{
			name:    "media type with charset parameter",
			input:   "data:text/plain;charset=utf-8;base64,aGVsbG8=",
			wantErr: true,
		},
		{
			name:    "missing media type",
			input:   "data:;base64,aGVsbG8=",
			wantErr: true,
		},
		{
			name:    "not base64 encoded",
			input:   "data:text/plain,hello",
			wantErr: true,
		},
		{
			name:    "invalid base64 payload",
			input:   "data:text/plain;base64,!!not-base64!!",
			wantErr: true,
		},
		{
			name:    "not a data url at all",
			input:   "https://example.com/a.txt",
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Decode(test.input)
			if test.wantErr {
				if !errors.Is(err, ErrNotDataURL) {
					t.Fatalf("expected ErrNotDataURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.MediaType != test.wantMediaType {
				t.Errorf("wrong media type\nwant %q\ngot  %q", test.wantMediaType, got.MediaType)
			}
			if string(got.Data) != test.wantData {
				t.Errorf("wrong data\nwant %q\ngot  %q", test.wantData, got.Data)
			}
		})
	}
}

func TestDecodeLenient(t *testing.T) {
	t.Parallel()
	// a payload the strict grammar refuses, but the read path serves
	got, err := DecodeLenient("data:text/plain;charset=utf-8;base64,aGVsbG8=")
	if err != nil {
		t.Fatal(err)
	}
	if got.MediaType != "text/plain;charset=utf-8" {
		t.Errorf("wrong media type: %q", got.MediaType)
	}
	if string(got.Data) != "hello" {
		t.Errorf("wrong data: %q", got.Data)
	}

	got, err = DecodeLenient("data:;base64,aGVsbG8=")
	if err != nil {
		t.Fatal(err)
	}
	if got.MediaType != "application/octet-stream" {
		t.Errorf("empty media type should default to octet-stream, got %q", got.MediaType)
	}

	if _, err := DecodeLenient("hello"); !errors.Is(err, ErrNotDataURL) {
		t.Errorf("expected ErrNotDataURL, got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()
	encoded := Encode("application/pdf", []byte("%PDF-1.4"))
	got, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if got.MediaType != "application/pdf" || string(got.Data) != "%PDF-1.4" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
