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

package transform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aaronlmathis/gospectra"
)

// Package transform provides reusable, composable point transformation
// functions for GoSpectra pipelines.
//
// Transformers run before aggregation, so they shape raw measurement points.
// Typical uses: renaming instrument-specific column names to the canonical
// "time"/"mz"/"intensity" fields, unit conversion, and coercing string
// columns to floats.

// Rename creates a transformer that renames fields according to the provided
// mapping. Keys are original field names, values are new field names.
func Rename(mapping map[string]string) gospectra.Transformer {
	return gospectra.TransformFunc(func(ctx context.Context, record gospectra.Record) (gospectra.Record, error) {
		result := make(gospectra.Record, len(record))
		for key, value := range record {
			if newKey, exists := mapping[key]; exists {
				result[newKey] = value
			} else {
				result[key] = value
			}
		}
		return result, nil
	})
}

// Select creates a transformer that keeps only the specified fields.
func Select(fields ...string) gospectra.Transformer {
	return gospectra.TransformFunc(func(ctx context.Context, record gospectra.Record) (gospectra.Record, error) {
		result := make(gospectra.Record, len(fields))
		for _, field := range fields {
			if value, exists := record[field]; exists {
				result[field] = value
			}
		}
		return result, nil
	})
}

// Scale creates a transformer that multiplies a numeric field by a constant
// factor. Useful for unit conversion, e.g. minutes to seconds on "time" or
// detector counts to absolute intensity.
func Scale(field string, factor float64) gospectra.Transformer {
	return gospectra.TransformFunc(func(ctx context.Context, record gospectra.Record) (gospectra.Record, error) {
		result := make(gospectra.Record, len(record))
		for k, v := range record {
			result[k] = v
		}
		if value, exists := record[field]; exists {
			num, err := toFloat64(value)
			if err != nil {
				return nil, fmt.Errorf("failed to scale field %s: %w", field, err)
			}
			result[field] = num * factor
		}
		return result, nil
	})
}

// Offset creates a transformer that adds a constant to a numeric field.
// Useful for aligning retention-time axes between runs.
func Offset(field string, delta float64) gospectra.Transformer {
	return gospectra.TransformFunc(func(ctx context.Context, record gospectra.Record) (gospectra.Record, error) {
		result := make(gospectra.Record, len(record))
		for k, v := range record {
			result[k] = v
		}
		if value, exists := record[field]; exists {
			num, err := toFloat64(value)
			if err != nil {
				return nil, fmt.Errorf("failed to offset field %s: %w", field, err)
			}
			result[field] = num + delta
		}
		return result, nil
	})
}

// AddField creates a transformer that adds a new field with a computed value
// to each point. The value is computed by the provided function.
func AddField(field string, fn func(gospectra.Record) interface{}) gospectra.Transformer {
	return gospectra.TransformFunc(func(ctx context.Context, record gospectra.Record) (gospectra.Record, error) {
		result := make(gospectra.Record, len(record)+1)
		for k, v := range record {
			result[k] = v
		}
		result[field] = fn(record)
		return result, nil
	})
}

// RemoveFields creates a transformer that removes the specified fields.
// Fields that don't exist are ignored.
func RemoveFields(fields ...string) gospectra.Transformer {
	fieldsToRemove := make(map[string]bool, len(fields))
	for _, field := range fields {
		fieldsToRemove[field] = true
	}

	return gospectra.TransformFunc(func(ctx context.Context, record gospectra.Record) (gospectra.Record, error) {
		result := make(gospectra.Record, len(record))
		for k, v := range record {
			if !fieldsToRemove[k] {
				result[k] = v
			}
		}
		return result, nil
	})
}

// ToFloat creates a transformer that coerces a field to float64. Sources that
// leave numeric columns as strings (loosely typed CSV exports) need this
// before the field can reach the aggregator.
func ToFloat(field string) gospectra.Transformer {
	return gospectra.TransformFunc(func(ctx context.Context, record gospectra.Record) (gospectra.Record, error) {
		result := make(gospectra.Record, len(record))
		for k, v := range record {
			result[k] = v
		}
		if value, exists := record[field]; exists {
			num, err := toFloat64(value)
			if err != nil {
				return nil, fmt.Errorf("failed to convert field %s: %w", field, err)
			}
			result[field] = num
		}
		return result, nil
	})
}

// Custom creates a transformer from a user-provided function.
func Custom(fn func(ctx context.Context, record gospectra.Record) (gospectra.Record, error)) gospectra.Transformer {
	return gospectra.TransformFunc(fn)
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}
