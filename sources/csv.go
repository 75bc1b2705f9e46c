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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/gospectra"
)

// CSVSourceError wraps structured error information for the CSV source.
type CSVSourceError struct {
	Op  string
	Err error
}

func (e *CSVSourceError) Error() string {
	return fmt.Sprintf("csv source %s: %v", e.Op, e.Err)
}

func (e *CSVSourceError) Unwrap() error {
	return e.Err
}

// CSVSourceStats holds statistics about the CSV source's performance.
type CSVSourceStats struct {
	PointsRead      int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// CSVSourceOptions configures the CSV source.
type CSVSourceOptions struct {
	Comma            rune
	Comment          rune
	FieldsPerRecord  int
	LazyQuotes       bool
	TrimLeadingSpace bool
	HasHeaders       bool
}

// SourceOptionCSV allows functional customization of CSVSource.
type SourceOptionCSV func(*CSVSourceOptions)

func WithCSVComma(r rune) SourceOptionCSV {
	return func(o *CSVSourceOptions) { o.Comma = r }
}

func WithCSVComment(r rune) SourceOptionCSV {
	return func(o *CSVSourceOptions) { o.Comment = r }
}

func WithCSVHasHeaders(hasHeaders bool) SourceOptionCSV {
	return func(o *CSVSourceOptions) { o.HasHeaders = hasHeaders }
}

func WithCSVTrimSpace(trim bool) SourceOptionCSV {
	return func(o *CSVSourceOptions) { o.TrimLeadingSpace = trim }
}

// CSVSource implements gospectra.PointSource for CSV and TSV measurement
// exports. The header row supplies the schema; a tab delimiter reports the
// format as "tsv".
type CSVSource struct {
	reader  *csv.Reader
	headers []string
	closer  io.Closer
	stats   CSVSourceStats
	opts    CSVSourceOptions
}

// NewCSVSource creates a CSVSource with default or overridden options.
func NewCSVSource(r io.ReadCloser, options ...SourceOptionCSV) (*CSVSource, error) {
	opts := CSVSourceOptions{
		Comma:            ',',
		HasHeaders:       true,
		TrimLeadingSpace: true,
	}

	for _, opt := range options {
		opt(&opts)
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = opts.Comma
	csvReader.Comment = opts.Comment
	csvReader.FieldsPerRecord = opts.FieldsPerRecord
	csvReader.LazyQuotes = opts.LazyQuotes
	csvReader.TrimLeadingSpace = opts.TrimLeadingSpace

	source := &CSVSource{
		reader: csvReader,
		closer: r,
		opts:   opts,
		stats:  CSVSourceStats{NullValueCounts: make(map[string]int64)},
	}

	// Read headers if applicable
	if opts.HasHeaders {
		headers, err := csvReader.Read()
		if err != nil {
			return nil, &CSVSourceError{Op: "read_headers", Err: err}
		}
		source.headers = headers
	}

	return source, nil
}

// Read implements the PointSource interface.
func (c *CSVSource) Read(ctx context.Context) (gospectra.Record, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return nil, &CSVSourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	row, err := c.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &CSVSourceError{Op: "read_point", Err: err}
	}

	res := make(gospectra.Record)

	if len(c.headers) > 0 {
		for i, val := range row {
			key := c.headers[i]
			if strings.TrimSpace(val) == "" {
				c.stats.NullValueCounts[key]++
				res[key] = nil
			} else {
				res[key] = c.parseValue(val)
			}
		}
	} else {
		for i, val := range row {
			key := "col_" + strconv.Itoa(i)
			if strings.TrimSpace(val) == "" {
				c.stats.NullValueCounts[key]++
				res[key] = nil
			} else {
				res[key] = c.parseValue(val)
			}
		}
	}

	c.stats.PointsRead++
	c.stats.LastReadTime = time.Now()
	c.stats.ReadDuration += time.Since(start)

	return res, nil
}

// Headers implements the PointSource interface.
func (c *CSVSource) Headers() []string {
	return c.headers
}

// Format implements the PointSource interface.
func (c *CSVSource) Format() string {
	if c.opts.Comma == '\t' {
		return "tsv"
	}
	return "csv"
}

// Close implements the PointSource interface.
func (c *CSVSource) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Stats returns CSV source performance stats.
func (c *CSVSource) Stats() CSVSourceStats {
	return c.stats
}

// parseValue attempts to infer float, int, bool, or fallback to string.
// Floats are tried first: measurement columns are numeric almost everywhere,
// and the aggregator expects them that way.
func (c *CSVSource) parseValue(value string) interface{} {
	value = strings.TrimSpace(value)

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
