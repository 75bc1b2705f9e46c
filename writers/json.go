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
	"fmt"
	"io"
	"strconv"

	"github.com/aaronlmathis/gospectra"
)

// JSONWriterError wraps JSON-specific write errors with context.
type JSONWriterError struct {
	Op  string
	Err error
}

func (e *JSONWriterError) Error() string {
	return fmt.Sprintf("json writer %s: %v", e.Op, e.Err)
}

func (e *JSONWriterError) Unwrap() error {
	return e.Err
}

// JSONWriter implements SpectrumSink as line-delimited JSON. Each spectrum
// becomes one object {"time": t, "values": {"<coord>": intensity, ...}} where
// coordinate keys are formatted with strconv.FormatFloat for stable round-trips.
type JSONWriter struct {
	writer  io.Writer
	closer  io.Closer
	written int64
}

// NewJSONWriter creates a new spectrum JSON writer.
func NewJSONWriter(w io.WriteCloser) *JSONWriter {
	return &JSONWriter{writer: w, closer: w}
}

type jsonSpectrum struct {
	Time   float64            `json:"time"`
	Values map[string]float64 `json:"values"`
}

// Write implements the SpectrumSink interface.
func (j *JSONWriter) Write(ctx context.Context, spectrum gospectra.Spectrum) error {
	select {
	case <-ctx.Done():
		return &JSONWriterError{Op: "write", Err: ctx.Err()}
	default:
	}

	out := jsonSpectrum{
		Time:   spectrum.Time,
		Values: make(map[string]float64, len(spectrum.Values)),
	}
	for y, z := range spectrum.Values {
		out.Values[strconv.FormatFloat(y, 'g', -1, 64)] = z
	}

	data, err := json.Marshal(out)
	if err != nil {
		return &JSONWriterError{Op: "marshal", Err: err}
	}

	if _, err := j.writer.Write(append(data, '\n')); err != nil {
		return &JSONWriterError{Op: "write", Err: err}
	}
	j.written++
	return nil
}

// Flush implements the SpectrumSink interface.
func (j *JSONWriter) Flush() error {
	if flusher, ok := j.writer.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return &JSONWriterError{Op: "flush", Err: err}
		}
	}
	return nil
}

// Close implements the SpectrumSink interface.
func (j *JSONWriter) Close() error {
	if err := j.Flush(); err != nil {
		return err
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// Written returns the number of spectra written so far.
func (j *JSONWriter) Written() int64 {
	return j.written
}
