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

	"github.com/aaronlmathis/gospectra"
)

// Package filter provides reusable, composable point filtering functions for
// GoSpectra pipelines.
//
// Filters run before aggregation, so they see raw measurement points. Dropping
// a point excludes it from every spectrum; it cannot shift bucket boundaries
// of points that remain.

// MinIntensity creates a filter that excludes points whose intensity is below
// the threshold. Common for baseline noise removal before aggregation.
func MinIntensity(threshold float64) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		value, exists := record[gospectra.IntensityField]
		if !exists {
			return false, nil
		}
		num, ok := asFloat64(value)
		if !ok {
			return false, nil
		}
		return num >= threshold, nil
	})
}

// TimeBetween creates a filter that includes points whose time falls in
// [min, max] inclusive.
func TimeBetween(min, max float64) gospectra.Filter {
	return Between(gospectra.TimeField, min, max)
}

// CoordinateBetween creates a filter that includes points whose value in the
// given coordinate field (mz or wavelength) falls in [min, max] inclusive.
func CoordinateBetween(field string, min, max float64) gospectra.Filter {
	return Between(field, min, max)
}

// Between creates a filter that includes points where the numeric field is
// between min and max (inclusive).
func Between(field string, min, max float64) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		value, exists := record[field]
		if !exists {
			return false, nil
		}
		num, ok := asFloat64(value)
		if !ok {
			return false, nil
		}
		return num >= min && num <= max, nil
	})
}

// GreaterThan creates a filter that includes points where the numeric field
// exceeds the threshold.
func GreaterThan(field string, threshold float64) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		value, exists := record[field]
		if !exists {
			return false, nil
		}
		num, ok := asFloat64(value)
		if !ok {
			return false, nil
		}
		return num > threshold, nil
	})
}

// NotNull creates a filter that excludes points where the specified field is
// missing, nil, or an empty string.
func NotNull(field string) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		value, exists := record[field]
		if !exists {
			return false, nil
		}
		if value == nil {
			return false, nil
		}
		if str, ok := value.(string); ok && str == "" {
			return false, nil
		}
		return true, nil
	})
}

// And creates a filter that requires all provided filters to pass.
func And(filters ...gospectra.Filter) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		for _, f := range filters {
			include, err := f.ShouldInclude(ctx, record)
			if err != nil {
				return false, err
			}
			if !include {
				return false, nil
			}
		}
		return true, nil
	})
}

// Or creates a filter that requires at least one of the provided filters to pass.
func Or(filters ...gospectra.Filter) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		for _, f := range filters {
			include, err := f.ShouldInclude(ctx, record)
			if err != nil {
				return false, err
			}
			if include {
				return true, nil
			}
		}
		return false, nil
	})
}

// Not creates a filter that negates the provided filter.
func Not(f gospectra.Filter) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		include, err := f.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		return !include, nil
	})
}

// Custom creates a filter from a user-provided predicate function.
func Custom(predicate func(gospectra.Record) bool) gospectra.Filter {
	return gospectra.FilterFunc(func(ctx context.Context, record gospectra.Record) (bool, error) {
		return predicate(record), nil
	})
}

// asFloat64 converts the numeric types point sources produce to float64.
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
