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

package writers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gospectra"
)

func TestJSONWriter_BasicFunctionality(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, gospectra.Spectrum{
		Time:   0,
		Values: map[float64]float64{100: 8, 200: 1},
	}))
	require.NoError(t, writer.Write(ctx, gospectra.Spectrum{
		Time:   2,
		Values: map[float64]float64{100: 7},
	}))
	require.NoError(t, writer.Close())
	assert.True(t, mock.closed)
	assert.Equal(t, int64(2), writer.Written())

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	require.Len(t, lines, 2)

	var first struct {
		Time   float64            `json:"time"`
		Values map[string]float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 0.0, first.Time)
	assert.Equal(t, map[string]float64{"100": 8, "200": 1}, first.Values)
}

func TestJSONWriter_CoordinateKeyFormatting(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)

	require.NoError(t, writer.Write(context.Background(), gospectra.Spectrum{
		Time:   1.5,
		Values: map[float64]float64{100.25: 3},
	}))
	require.NoError(t, writer.Close())

	var decoded struct {
		Values map[string]float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(mock.String())), &decoded))
	assert.Equal(t, 3.0, decoded.Values["100.25"])
}

func TestJSONWriter_ContextCancellation(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := writer.Write(ctx, gospectra.Spectrum{Time: 0, Values: map[float64]float64{100: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}
