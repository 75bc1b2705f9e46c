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
	"fmt"
	"math"

	"github.com/aaronlmathis/gospectra"
)

// validatedSource wraps a PointSource, running checks against each point.
type validatedSource struct {
	source gospectra.PointSource
	checks []Check
	index  int64
}

// Source wraps a point source so that every point is validated before it is
// returned from Read. The first violating point aborts the stream with a
// *ValidationError.
func Source(source gospectra.PointSource, checks ...Check) gospectra.PointSource {
	if len(checks) == 0 {
		return source
	}
	return &validatedSource{source: source, checks: checks}
}

// Read implements the PointSource interface.
func (v *validatedSource) Read(ctx context.Context) (gospectra.Record, error) {
	record, err := v.source.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range v.checks {
		if err := c.Validate(record); err != nil {
			return nil, &ValidationError{Check: c.Name(), Index: v.index, Err: err}
		}
	}
	v.index++
	return record, nil
}

// Headers implements the PointSource interface.
func (v *validatedSource) Headers() []string {
	return v.source.Headers()
}

// Format implements the PointSource interface.
func (v *validatedSource) Format() string {
	return v.source.Format()
}

// Close implements the PointSource interface.
func (v *validatedSource) Close() error {
	return v.source.Close()
}

// MonotonicTime creates a stateful check that the time field never decreases
// across the stream. The aggregator assumes time-ordered input; feeding it
// unsorted points silently produces wrong buckets, so QC pipelines should run
// this check first. The returned Check tracks state and must not be shared
// between streams.
func MonotonicTime() Check {
	last := math.Inf(-1)
	return &check{
		name: "monotonic_time",
		fn: func(record gospectra.Record) error {
			value, exists := record[gospectra.TimeField]
			if !exists {
				return fmt.Errorf("missing field %q", gospectra.TimeField)
			}
			num, ok := asFloat64(value)
			if !ok {
				return fmt.Errorf("field %q is not numeric (%T)", gospectra.TimeField, value)
			}
			if num < last {
				return fmt.Errorf("time went backwards: %g after %g", num, last)
			}
			last = num
			return nil
		},
	}
}
