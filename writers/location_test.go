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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gospectra"
)

func TestFileLocation_CSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.csv")

	sink, err := FileLocation{Path: path}.NewSink(FormatCSV)
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(),
		gospectra.Spectrum{Time: 0, Values: map[float64]float64{100: 5}}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "time,coordinate,intensity", lines[0])
	assert.Equal(t, "0,100,5", lines[1])
}

func TestFileLocation_JSONSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectra.jsonl")

	sink, err := FileLocation{Path: path}.NewSink(FormatJSON)
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(),
		gospectra.Spectrum{Time: 1, Values: map[float64]float64{254: 0.5}}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"time":1`)
	assert.Contains(t, string(data), `"254":0.5`)
}

func TestFileLocation_UnsupportedFormat(t *testing.T) {
	_, err := FileLocation{Path: "out"}.NewSink(OutputFormat(99))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
