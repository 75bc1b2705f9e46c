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
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/aaronlmathis/gospectra"
)

// CSVWriterError wraps CSV-specific write errors with context.
type CSVWriterError struct {
	Op  string
	Err error
}

func (e *CSVWriterError) Error() string {
	return fmt.Sprintf("csv writer %s: %v", e.Op, e.Err)
}

func (e *CSVWriterError) Unwrap() error {
	return e.Err
}

// CSVWriterStats holds CSV write performance statistics.
type CSVWriterStats struct {
	SpectraWritten int64
	RowsWritten    int64
	FlushCount     int64
	FlushDuration  time.Duration
	LastFlushTime  time.Time
}

// CSVWriterOptions configures CSV output.
type CSVWriterOptions struct {
	Comma       rune
	UseCRLF     bool
	WriteHeader bool
	CoordName   string // Header label for the coordinate column (default "coordinate")
	Precision   int    // Significant digits for floats, -1 for shortest
}

// WriterOptionCSV is a functional option.
type WriterOptionCSV func(*CSVWriterOptions)

func WithComma(delim rune) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.Comma = delim }
}

func WithWriteHeader(write bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.WriteHeader = write }
}

func WithUseCRLF(useCRLF bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.UseCRLF = useCRLF }
}

// WithCoordName labels the coordinate column, e.g. "mz" or "wavelength".
func WithCoordName(name string) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.CoordName = name }
}

func WithPrecision(digits int) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.Precision = digits }
}

// CSVWriter implements SpectrumSink as long-format CSV: one row per
// (time, coordinate, intensity) triple, coordinates in ascending order so the
// output is deterministic.
type CSVWriter struct {
	writer      *csv.Writer
	closer      io.Closer
	options     CSVWriterOptions
	stats       CSVWriterStats
	wroteHeader bool
}

// NewCSVWriter creates a new spectrum CSV writer.
func NewCSVWriter(w io.WriteCloser, opts ...WriterOptionCSV) (*CSVWriter, error) {
	options := CSVWriterOptions{
		Comma:       ',',
		WriteHeader: true,
		CoordName:   "coordinate",
		Precision:   -1,
	}
	for _, opt := range opts {
		opt(&options)
	}

	cw := csv.NewWriter(w)
	cw.Comma = options.Comma
	cw.UseCRLF = options.UseCRLF

	return &CSVWriter{
		writer:  cw,
		closer:  w,
		options: options,
	}, nil
}

// Write implements the SpectrumSink interface.
func (c *CSVWriter) Write(ctx context.Context, spectrum gospectra.Spectrum) error {
	select {
	case <-ctx.Done():
		return &CSVWriterError{Op: "write", Err: ctx.Err()}
	default:
	}

	if !c.wroteHeader && c.options.WriteHeader {
		header := []string{"time", c.options.CoordName, "intensity"}
		if err := c.writer.Write(header); err != nil {
			return &CSVWriterError{Op: "write_header", Err: err}
		}
		c.wroteHeader = true
	}

	coords := make([]float64, 0, len(spectrum.Values))
	for y := range spectrum.Values {
		coords = append(coords, y)
	}
	sort.Float64s(coords)

	timeStr := c.formatFloat(spectrum.Time)
	for _, y := range coords {
		row := []string{timeStr, c.formatFloat(y), c.formatFloat(spectrum.Values[y])}
		if err := c.writer.Write(row); err != nil {
			return &CSVWriterError{Op: "write_row", Err: err}
		}
		c.stats.RowsWritten++
	}
	c.stats.SpectraWritten++

	return nil
}

// Flush implements the SpectrumSink interface.
func (c *CSVWriter) Flush() error {
	start := time.Now()

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return &CSVWriterError{Op: "flush", Err: err}
	}

	c.stats.FlushCount++
	c.stats.LastFlushTime = time.Now()
	c.stats.FlushDuration += time.Since(start)
	return nil
}

// Close implements the SpectrumSink interface.
func (c *CSVWriter) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Stats returns write statistics.
func (c *CSVWriter) Stats() CSVWriterStats {
	return c.stats
}

func (c *CSVWriter) formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', c.options.Precision, 64)
}
