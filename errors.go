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
	"fmt"
	"strings"
)

// SchemaError reports a point source whose schema exposes neither an "mz" nor
// a "wavelength" field, so no coordinate axis can be resolved. It is returned
// at construction time and is not recoverable.
type SchemaError struct {
	Format  string   // Format name of the offending source
	Headers []string // Headers the source actually exposes
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s source missing mz/wavelength field (headers: %s)",
		e.Format, strings.Join(e.Headers, ", "))
}

// EmptySourceError reports a point source that yielded no points at all.
// Seeding the first bucket requires at least one point, so an empty source is
// a construction-time failure rather than a zero-spectrum aggregator.
type EmptySourceError struct {
	Format string
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("%s source is empty", e.Format)
}

// PointError reports a pulled record that lacks a required numeric field or
// carries a value that cannot be interpreted as one.
type PointError struct {
	Field string      // Field that was missing or malformed
	Value interface{} // Offending value, nil if the field was absent
	Err   error       // Underlying conversion error, if any
}

func (e *PointError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("point field %q: %v", e.Field, e.Err)
	}
	if e.Value == nil {
		return fmt.Sprintf("point missing field %q", e.Field)
	}
	return fmt.Sprintf("point field %q: cannot convert %T to float64", e.Field, e.Value)
}

func (e *PointError) Unwrap() error {
	return e.Err
}
