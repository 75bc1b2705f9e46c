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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aaronlmathis/gospectra"
)

// JSONSourceError wraps structured error information for the JSON source.
type JSONSourceError struct {
	Op  string
	Err error
}

func (e *JSONSourceError) Error() string {
	return fmt.Sprintf("json source %s: %v", e.Op, e.Err)
}

func (e *JSONSourceError) Unwrap() error {
	return e.Err
}

// JSONSource implements gospectra.PointSource for line-delimited JSON.
//
// JSON lines carry no schema row, so the first point is decoded at
// construction to derive the headers and held back until the first Read.
type JSONSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	headers []string
	pending gospectra.Record
}

// NewJSONSource creates a new point source for line-delimited JSON.
func NewJSONSource(r io.ReadCloser) (*JSONSource, error) {
	source := &JSONSource{
		scanner: bufio.NewScanner(r),
		closer:  r,
	}

	// One-line lookahead for schema introspection. An empty stream is left
	// for the aggregator to surface as an empty-source failure.
	record, err := source.scan()
	if err == io.EOF {
		return source, nil
	}
	if err != nil {
		return nil, err
	}
	source.pending = record
	for key := range record {
		source.headers = append(source.headers, key)
	}
	sort.Strings(source.headers)

	return source, nil
}

// Read implements the PointSource interface.
func (j *JSONSource) Read(ctx context.Context) (gospectra.Record, error) {
	select {
	case <-ctx.Done():
		return nil, &JSONSourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	if j.pending != nil {
		record := j.pending
		j.pending = nil
		return record, nil
	}
	return j.scan()
}

// scan decodes the next line into a record.
func (j *JSONSource) scan() (gospectra.Record, error) {
	if !j.scanner.Scan() {
		if err := j.scanner.Err(); err != nil {
			return nil, &JSONSourceError{Op: "scan", Err: err}
		}
		return nil, io.EOF
	}

	var record gospectra.Record
	if err := json.Unmarshal(j.scanner.Bytes(), &record); err != nil {
		return nil, &JSONSourceError{Op: "decode", Err: err}
	}
	return record, nil
}

// Headers implements the PointSource interface. Keys are reported in sorted
// order, taken from the first point on the stream.
func (j *JSONSource) Headers() []string {
	return j.headers
}

// Format implements the PointSource interface.
func (j *JSONSource) Format() string {
	return "json"
}

// Close implements the PointSource interface.
func (j *JSONSource) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
