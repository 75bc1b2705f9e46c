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

package validate

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gospectra"
)

// Mock point source for validation testing
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

func TestRequiredFields(t *testing.T) {
	check := RequiredFields("time", "mz", "intensity")

	assert.NoError(t, check.Validate(gospectra.Record{
		"time": 0.0, "mz": 100.0, "intensity": 1.0,
	}))
	assert.Error(t, check.Validate(gospectra.Record{"time": 0.0, "mz": 100.0}))
	assert.Error(t, check.Validate(gospectra.Record{
		"time": 0.0, "mz": 100.0, "intensity": nil,
	}))
}

func TestNonNegative(t *testing.T) {
	check := NonNegative("intensity")

	assert.NoError(t, check.Validate(gospectra.Record{"intensity": 0.0}))
	assert.NoError(t, check.Validate(gospectra.Record{"intensity": 5.0}))
	assert.Error(t, check.Validate(gospectra.Record{"intensity": -0.1}))
	assert.Error(t, check.Validate(gospectra.Record{"intensity": "five"}))
	// Missing fields are left to RequiredFields
	assert.NoError(t, check.Validate(gospectra.Record{"time": 0.0}))
}

func TestNumeric(t *testing.T) {
	check := Numeric("time", "intensity")

	assert.NoError(t, check.Validate(gospectra.Record{"time": 0.0, "intensity": int64(3)}))
	assert.Error(t, check.Validate(gospectra.Record{"time": "0.0"}))
}

func TestMonotonicTime(t *testing.T) {
	check := MonotonicTime()

	assert.NoError(t, check.Validate(gospectra.Record{"time": 0.0}))
	assert.NoError(t, check.Validate(gospectra.Record{"time": 0.5}))
	assert.NoError(t, check.Validate(gospectra.Record{"time": 0.5})) // equal is fine
	assert.Error(t, check.Validate(gospectra.Record{"time": 0.4}))
	assert.Error(t, check.Validate(gospectra.Record{}))
}

func TestCustomCheck(t *testing.T) {
	boom := errors.New("boom")
	check := Custom("always_fails", func(record gospectra.Record) error {
		return boom
	})

	assert.Equal(t, "always_fails", check.Name())
	assert.ErrorIs(t, check.Validate(gospectra.Record{}), boom)
}

func TestSource_PassThrough(t *testing.T) {
	source := &mockPointSource{
		headers: []string{"time", "mz", "intensity"},
		points: []gospectra.Record{
			{"time": 0.0, "mz": 100.0, "intensity": 1.0},
			{"time": 0.5, "mz": 110.0, "intensity": 2.0},
		},
	}

	validated := Source(source, RequiredFields("time", "mz", "intensity"), MonotonicTime())
	assert.Equal(t, source.Headers(), validated.Headers())
	assert.Equal(t, "mock", validated.Format())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := validated.Read(ctx)
		require.NoError(t, err)
	}
	_, err := validated.Read(ctx)
	assert.Equal(t, io.EOF, err)

	require.NoError(t, validated.Close())
	assert.True(t, source.closed)
}

func TestSource_ViolationAborts(t *testing.T) {
	source := &mockPointSource{
		headers: []string{"time", "mz", "intensity"},
		points: []gospectra.Record{
			{"time": 1.0, "mz": 100.0, "intensity": 1.0},
			{"time": 0.5, "mz": 110.0, "intensity": 2.0}, // out of order
		},
	}

	validated := Source(source, MonotonicTime())
	ctx := context.Background()

	_, err := validated.Read(ctx)
	require.NoError(t, err)

	_, err = validated.Read(ctx)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "monotonic_time", valErr.Check)
	assert.Equal(t, int64(1), valErr.Index)
	assert.Contains(t, valErr.Error(), "backwards")
}

func TestSource_NoChecksKeepsSource(t *testing.T) {
	source := &mockPointSource{headers: []string{"time", "mz", "intensity"}}
	assert.Same(t, gospectra.PointSource(source), Source(source))
}
