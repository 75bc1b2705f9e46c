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

package gospectra

import (
	"context"
)

// Package gospectra defines the core interfaces and types for the GoSpectra library.
//
// GoSpectra is a streaming spectrum-aggregation library for Go: it consumes
// time-ordered measurement points (chromatography, mass spectrometry, UV traces)
// from pull-based point sources and groups them into discrete spectra.
//
// This file contains the primary interfaces for point sources, spectrum sinks,
// transformation, filtering, and error handling.

// Record represents a single measurement point as produced by a point source.
// Each record is a map from field names to values; the fields of interest to
// the aggregator are "time", "mz" or "wavelength", and "intensity".
type Record map[string]interface{}

// Spectrum is one closed time bucket: an anchor time plus a mapping from
// coordinate (mz or wavelength) to merged intensity. Immutable once produced.
type Spectrum struct {
	Time   float64
	Values map[float64]float64
}

// PointSource defines the interface for point extraction.
// Implementations stream measurement points from a source (e.g., CSV, Parquet,
// PostgreSQL, an instrument export on S3).
type PointSource interface {
	// Read returns the next point or io.EOF when no more points are available.
	Read(ctx context.Context) (Record, error)
	// Headers returns the field names the source exposes, in source order.
	Headers() []string
	// Format returns the name of the underlying format (e.g., "csv", "parquet").
	Format() string
	// Close releases any resources held by the point source.
	Close() error
}

// SpectrumSink defines the interface for spectrum loading.
// Implementations write closed spectra to a destination (e.g., CSV, JSON).
type SpectrumSink interface {
	// Write outputs a single spectrum to the sink.
	Write(ctx context.Context, spectrum Spectrum) error
	// Flush ensures all buffered data is written to the sink.
	Flush() error
	// Close releases any resources held by the sink.
	Close() error
}

// Transformer defines the interface for point transformation operations.
// Transformers modify or enrich points before they reach the aggregator.
type Transformer interface {
	// Transform applies the transformation to a point and returns the result.
	Transform(ctx context.Context, record Record) (Record, error)
}

// TransformFunc is a function adapter for the Transformer interface.
// Allows ordinary functions to be used as Transformers.
type TransformFunc func(ctx context.Context, record Record) (Record, error)

// Transform implements the Transformer interface for TransformFunc.
func (f TransformFunc) Transform(ctx context.Context, record Record) (Record, error) {
	return f(ctx, record)
}

// Filter defines the interface for point filtering.
// Filters determine whether a point should reach the aggregator.
type Filter interface {
	// ShouldInclude returns true if the point should be included.
	ShouldInclude(ctx context.Context, record Record) (bool, error)
}

// FilterFunc is a function adapter for the Filter interface.
// Allows ordinary functions to be used as Filters.
type FilterFunc func(ctx context.Context, record Record) (bool, error)

// ShouldInclude implements the Filter interface for FilterFunc.
func (f FilterFunc) ShouldInclude(ctx context.Context, record Record) (bool, error) {
	return f(ctx, record)
}

// ErrorStrategy defines how sink write errors are handled in the pipeline.
// Source and aggregation errors always abort: a spectrum cannot be rebuilt
// once a pull fails mid-bucket.
type ErrorStrategy int

const (
	// FailFast stops processing on the first error encountered.
	FailFast ErrorStrategy = iota
	// SkipErrors continues processing, skipping spectra that failed to write.
	SkipErrors
	// CollectErrors continues processing, collecting write errors for later inspection.
	CollectErrors
)

// ErrorHandler defines how write errors are handled during processing.
// Custom error handlers can be used to log, collect, or transform errors.
type ErrorHandler interface {
	// HandleError processes an error that occurred while writing a spectrum.
	// Returning a non-nil error will stop the pipeline; returning nil will continue.
	HandleError(ctx context.Context, spectrum Spectrum, err error) error
}

// ErrorHandlerFunc is a function adapter for the ErrorHandler interface.
// Allows ordinary functions to be used as error handlers.
type ErrorHandlerFunc func(ctx context.Context, spectrum Spectrum, err error) error

// HandleError implements the ErrorHandler interface for ErrorHandlerFunc.
func (f ErrorHandlerFunc) HandleError(ctx context.Context, spectrum Spectrum, err error) error {
	return f(ctx, spectrum, err)
}
