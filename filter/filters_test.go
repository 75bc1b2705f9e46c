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

package filter

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gospectra"
)

// Mock point source for filter testing
type mockPointSource struct {
	points  []gospectra.Record
	headers []string
	index   int
	closed  bool
}

func (m *mockPointSource) Read(ctx context.Context) (gospectra.Record, error) {
	if m.index >= len(m.points) {
		return nil, io.EOF
	}
	record := m.points[m.index]
	m.index++
	return record, nil
}

func (m *mockPointSource) Headers() []string { return m.headers }
func (m *mockPointSource) Format() string    { return "mock" }
func (m *mockPointSource) Close() error {
	m.closed = true
	return nil
}

func point(t, mz, intensity float64) gospectra.Record {
	return gospectra.Record{"time": t, "mz": mz, "intensity": intensity}
}

func include(t *testing.T, f gospectra.Filter, record gospectra.Record) bool {
	t.Helper()
	ok, err := f.ShouldInclude(context.Background(), record)
	require.NoError(t, err)
	return ok
}

func TestMinIntensity(t *testing.T) {
	f := MinIntensity(2.0)

	assert.True(t, include(t, f, point(0, 100, 5)))
	assert.True(t, include(t, f, point(0, 100, 2))) // inclusive
	assert.False(t, include(t, f, point(0, 100, 1.9)))
	assert.False(t, include(t, f, gospectra.Record{"time": 0.0, "mz": 100.0}))
}

func TestTimeBetween(t *testing.T) {
	f := TimeBetween(1, 5)

	assert.False(t, include(t, f, point(0.5, 100, 1)))
	assert.True(t, include(t, f, point(1, 100, 1)))
	assert.True(t, include(t, f, point(5, 100, 1)))
	assert.False(t, include(t, f, point(5.1, 100, 1)))
}

func TestCoordinateBetween(t *testing.T) {
	f := CoordinateBetween("mz", 100, 200)

	assert.True(t, include(t, f, point(0, 150, 1)))
	assert.False(t, include(t, f, point(0, 250, 1)))
}

func TestGreaterThan(t *testing.T) {
	f := GreaterThan("intensity", 3)

	assert.True(t, include(t, f, point(0, 100, 3.5)))
	assert.False(t, include(t, f, point(0, 100, 3))) // strict
}

func TestNotNull(t *testing.T) {
	f := NotNull("intensity")

	assert.True(t, include(t, f, point(0, 100, 0)))
	assert.False(t, include(t, f, gospectra.Record{"time": 0.0, "intensity": nil}))
	assert.False(t, include(t, f, gospectra.Record{"time": 0.0}))
	assert.False(t, include(t, f, gospectra.Record{"intensity": ""}))
}

func TestCombinators(t *testing.T) {
	inWindow := TimeBetween(0, 10)
	strong := MinIntensity(5)

	both := And(inWindow, strong)
	either := Or(inWindow, strong)
	weak := Not(strong)

	p := point(3, 100, 2)
	assert.False(t, include(t, both, p))
	assert.True(t, include(t, either, p))
	assert.True(t, include(t, weak, p))

	p = point(3, 100, 9)
	assert.True(t, include(t, both, p))
	assert.False(t, include(t, weak, p))
}

func TestCustom(t *testing.T) {
	f := Custom(func(record gospectra.Record) bool {
		return record["mz"] == 100.0
	})

	assert.True(t, include(t, f, point(0, 100, 1)))
	assert.False(t, include(t, f, point(0, 200, 1)))
}

func TestApply(t *testing.T) {
	source := &mockPointSource{
		headers: []string{"time", "mz", "intensity"},
		points: []gospectra.Record{
			point(0, 100, 5),
			point(0, 150, 0.5),
			point(1, 200, 3),
		},
	}

	filtered := Apply(source, MinIntensity(1.0))
	assert.Equal(t, source.Headers(), filtered.Headers())
	assert.Equal(t, "mock", filtered.Format())

	ctx := context.Background()

	record, err := filtered.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, record["mz"])

	// The 0.5 intensity point is skipped transparently
	record, err = filtered.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200.0, record["mz"])

	_, err = filtered.Read(ctx)
	assert.Equal(t, io.EOF, err)

	require.NoError(t, filtered.Close())
	assert.True(t, source.closed)
}

func TestApplyNoFilters(t *testing.T) {
	source := &mockPointSource{headers: []string{"time", "mz", "intensity"}}
	assert.Same(t, gospectra.PointSource(source), Apply(source))
}
