//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoSpectra.
//
// GoSpectra is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoSpectra is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoSpectra. If not, see https://www.gnu.org/licenses/.

package sources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_CSVResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "time,mz,intensity\n0.0,100.0,5.0\n")
	}))
	defer server.Close()

	source, err := NewHTTPSource(context.Background(), server.URL)
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, "http+csv", source.Format())
	assert.Equal(t, []string{"time", "mz", "intensity"}, source.Headers())

	record, err := source.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, record["mz"])

	_, err = source.Read(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestHTTPSource_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"time": 0.0, "wavelength": 254.0, "intensity": 0.5}`+"\n")
	}))
	defer server.Close()

	source, err := NewHTTPSource(context.Background(), server.URL)
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, "http+json", source.Format())

	record, err := source.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 254.0, record["wavelength"])
}

func TestHTTPSource_ExplicitFormatOverridesContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Wrong content type on purpose
		w.Header().Set("Content-Type", "application/octet-stream")
		io.WriteString(w, "time,mz,intensity\n0.0,100.0,5.0\n")
	}))
	defer server.Close()

	source, err := NewHTTPSource(context.Background(), server.URL,
		WithHTTPResponseFormat("csv"))
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, "http+csv", source.Format())
}

func TestHTTPSource_AuthHeaders(t *testing.T) {
	var gotAuth, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "time,mz,intensity\n0.0,100.0,5.0\n")
	}))
	defer server.Close()

	source, err := NewHTTPSource(context.Background(), server.URL,
		WithHTTPBearerToken("secret-token"))
	require.NoError(t, err)
	source.Close()
	assert.Equal(t, "Bearer secret-token", gotAuth)

	source, err = NewHTTPSource(context.Background(), server.URL,
		WithHTTPAPIKey("X-API-Key", "abc123"))
	require.NoError(t, err)
	source.Close()
	assert.Equal(t, "abc123", gotAPIKey)
}

func TestHTTPSource_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "time,mz,intensity\n0.0,100.0,5.0\n")
	}))
	defer server.Close()

	source, err := NewHTTPSource(context.Background(), server.URL,
		WithHTTPRetries(3, time.Millisecond))
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, 3, attempts)
}

func TestHTTPSource_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPSource(context.Background(), server.URL,
		WithHTTPRetries(0, 0))
	var srcErr *HTTPSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "status", srcErr.Op)
}

func TestHTTPSource_UnsupportedFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data")
	}))
	defer server.Close()

	_, err := NewHTTPSource(context.Background(), server.URL,
		WithHTTPResponseFormat("xml"))
	var srcErr *HTTPSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "decode", srcErr.Op)
}
