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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSource_BasicFunctionality(t *testing.T) {
	mock := newMockReadCloser(`{"time": 0.0, "mz": 100.0, "intensity": 5.0}
{"time": 0.5, "mz": 200.0, "intensity": 3.0}`)

	source, err := NewJSONSource(mock)
	require.NoError(t, err)

	// Headers derived from the first line, sorted
	assert.Equal(t, []string{"intensity", "mz", "time"}, source.Headers())
	assert.Equal(t, "json", source.Format())

	ctx := context.Background()

	// The lookahead record must not be lost
	record, err := source.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, record["time"])
	assert.Equal(t, 100.0, record["mz"])

	record, err = source.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200.0, record["mz"])

	_, err = source.Read(ctx)
	assert.Equal(t, io.EOF, err)

	require.NoError(t, source.Close())
	assert.True(t, mock.closed)
}

func TestJSONSource_EmptyStream(t *testing.T) {
	mock := newMockReadCloser("")

	// Construction succeeds; exhaustion surfaces on first Read so the
	// aggregator can report the empty source.
	source, err := NewJSONSource(mock)
	require.NoError(t, err)
	assert.Empty(t, source.Headers())

	_, err = source.Read(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestJSONSource_MalformedLine(t *testing.T) {
	mock := newMockReadCloser(`{"time": 0.0, "mz": 100.0, "intensity": 5.0}
not json`)

	source, err := NewJSONSource(mock)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = source.Read(ctx)
	require.NoError(t, err)

	_, err = source.Read(ctx)
	var srcErr *JSONSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "decode", srcErr.Op)
}

func TestJSONSource_MalformedFirstLine(t *testing.T) {
	mock := newMockReadCloser(`{broken`)

	_, err := NewJSONSource(mock)
	var srcErr *JSONSourceError
	require.ErrorAs(t, err, &srcErr)
}
