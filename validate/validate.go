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

// validate.go - Streaming data quality checks for measurement points
package validate

import (
	"fmt"

	"github.com/aaronlmathis/gospectra"
)

// Package validate provides streaming data quality checks for GoSpectra
// pipelines. Unlike filters, which silently drop points, validation checks
// fail the stream: a point that violates a check surfaces a ValidationError
// from Read, aborting aggregation.

// ValidationError reports a point that failed a data quality check.
type ValidationError struct {
	Check string
	Index int64 // zero-based position of the point in the stream
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation %s failed at point %d: %v", e.Check, e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Check inspects a single point and returns an error describing the
// violation, or nil if the point is acceptable.
type Check interface {
	// Name identifies the check in error messages.
	Name() string
	// Validate inspects one point.
	Validate(record gospectra.Record) error
}

type check struct {
	name string
	fn   func(record gospectra.Record) error
}

func (c *check) Name() string                           { return c.name }
func (c *check) Validate(record gospectra.Record) error { return c.fn(record) }

// RequiredFields creates a check that every listed field is present and
// non-nil. The aggregator only requires time, a coordinate, and intensity,
// but upstream QC often wants stricter schemas.
func RequiredFields(fields ...string) Check {
	return &check{
		name: "required_fields",
		fn: func(record gospectra.Record) error {
			for _, field := range fields {
				value, exists := record[field]
				if !exists {
					return fmt.Errorf("missing field %q", field)
				}
				if value == nil {
					return fmt.Errorf("field %q is nil", field)
				}
			}
			return nil
		},
	}
}

// NonNegative creates a check that the listed numeric fields are >= 0.
// Negative intensities usually mean a detector baseline problem.
func NonNegative(fields ...string) Check {
	return &check{
		name: "non_negative",
		fn: func(record gospectra.Record) error {
			for _, field := range fields {
				value, exists := record[field]
				if !exists {
					continue
				}
				num, ok := asFloat64(value)
				if !ok {
					return fmt.Errorf("field %q is not numeric (%T)", field, value)
				}
				if num < 0 {
					return fmt.Errorf("field %q is negative (%g)", field, num)
				}
			}
			return nil
		},
	}
}

// Numeric creates a check that the listed fields carry numeric values.
func Numeric(fields ...string) Check {
	return &check{
		name: "numeric",
		fn: func(record gospectra.Record) error {
			for _, field := range fields {
				value, exists := record[field]
				if !exists {
					continue
				}
				if _, ok := asFloat64(value); !ok {
					return fmt.Errorf("field %q is not numeric (%T)", field, value)
				}
			}
			return nil
		},
	}
}

// Custom creates a check from a user-provided function.
func Custom(name string, fn func(record gospectra.Record) error) Check {
	return &check{name: name, fn: fn}
}

func asFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
