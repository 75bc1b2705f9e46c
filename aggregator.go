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
	"fmt"
	"io"

	"github.com/aaronlmathis/gospectra/merge"
)

// Default field names on point records. The coordinate field is resolved per
// source at construction; time and intensity can be overridden by option.
const (
	TimeField       = "time"
	MzField         = "mz"
	WavelengthField = "wavelength"
	IntensityField  = "intensity"
)

// AggregatorOptions configures a SpectrumAggregator.
type AggregatorOptions struct {
	TimeRes        float64    // Maximum time delta merged into one bucket
	MergeFunc      merge.Func // Reduction for same-coordinate intensities
	TimeField      string     // Field holding the point timestamp
	IntensityField string     // Field holding the point intensity
}

// AggregatorOption represents a configuration function for the aggregator.
type AggregatorOption func(*AggregatorOptions)

// WithTimeRes sets the bucket width threshold. Points whose time exceeds the
// bucket anchor by strictly more than the resolution start a new bucket.
// The default of 0 puts every distinct time value in its own bucket.
func WithTimeRes(timeRes float64) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.TimeRes = timeRes
	}
}

// WithMergeFunc sets the reduction applied to the intensities sharing a
// coordinate within one bucket. Defaults to merge.Sum.
func WithMergeFunc(fn merge.Func) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.MergeFunc = fn
	}
}

// WithTimeField overrides the field name holding the point timestamp.
func WithTimeField(field string) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.TimeField = field
	}
}

// WithIntensityField overrides the field name holding the point intensity.
func WithIntensityField(field string) AggregatorOption {
	return func(opts *AggregatorOptions) {
		opts.IntensityField = field
	}
}

// SpectrumAggregator is a stateful streaming transform over a PointSource: it
// pulls points one at a time, accumulates them into an in-progress bucket
// keyed by coordinate, and emits a (time, spectrum) pair whenever the time
// gap since the bucket's anchor exceeds the configured resolution, or when
// the source is exhausted.
//
// The aggregator owns exclusive mutable state (the current bucket) and the
// single cursor into the source; it must not be used from multiple goroutines
// without external synchronization. After a propagated source error the
// bucket state is undefined and Next must not be called again.
type SpectrumAggregator struct {
	source   PointSource
	coordKey string
	opts     AggregatorOptions

	anchorTime float64
	bucket     map[float64][]float64
}

// NewSpectrumAggregator wraps a point source in a spectrum aggregator.
//
// The coordinate axis is resolved once, from the source's headers: "mz" if
// present, else "wavelength", else construction fails with a *SchemaError.
// Exactly one point is pulled to seed the first bucket; if the source is
// already exhausted, construction fails with an *EmptySourceError. The pulled
// point is consumed irreversibly either way.
func NewSpectrumAggregator(ctx context.Context, source PointSource, options ...AggregatorOption) (*SpectrumAggregator, error) {
	opts := AggregatorOptions{
		MergeFunc:      merge.Sum,
		TimeField:      TimeField,
		IntensityField: IntensityField,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.TimeRes < 0 {
		return nil, fmt.Errorf("time resolution must be non-negative, got %v", opts.TimeRes)
	}
	if opts.MergeFunc == nil {
		opts.MergeFunc = merge.Sum
	}

	coordKey := ""
	for _, header := range source.Headers() {
		if header == MzField {
			coordKey = MzField
			break
		}
		if header == WavelengthField && coordKey == "" {
			coordKey = WavelengthField
		}
	}
	if coordKey == "" {
		return nil, &SchemaError{Format: source.Format(), Headers: source.Headers()}
	}

	agg := &SpectrumAggregator{
		source:   source,
		coordKey: coordKey,
		opts:     opts,
	}

	// Seed the first bucket from the source's first point.
	record, err := source.Read(ctx)
	if err == io.EOF {
		return nil, &EmptySourceError{Format: source.Format()}
	}
	if err != nil {
		return nil, err
	}
	t, y, z, err := agg.point(record)
	if err != nil {
		return nil, err
	}
	agg.anchorTime = t
	agg.bucket = map[float64][]float64{y: {z}}

	return agg, nil
}

// Next returns the next closed spectrum, or io.EOF when no more remain.
//
// Points are pulled until one lands strictly beyond the current bucket's time
// window; that point seeds the next bucket and the closed spectrum is
// returned immediately. Deltas equal to the resolution stay merged, with no
// epsilon tolerance. When the source is exhausted the final partial bucket is
// flushed; the call after that returns io.EOF.
func (a *SpectrumAggregator) Next(ctx context.Context) (Spectrum, error) {
	for {
		record, err := a.source.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Spectrum{}, err
		}

		t, y, z, err := a.point(record)
		if err != nil {
			return Spectrum{}, err
		}

		if t-a.anchorTime > a.opts.TimeRes {
			spectrum := a.closeBucket()
			a.anchorTime = t
			a.bucket = map[float64][]float64{y: {z}}
			return spectrum, nil
		}
		a.bucket[y] = append(a.bucket[y], z)
	}

	// Source exhausted. An empty bucket means the final spectrum has already
	// been flushed; a seeded bucket always holds at least one entry.
	if len(a.bucket) == 0 {
		return Spectrum{}, io.EOF
	}
	spectrum := a.closeBucket()
	a.bucket = map[float64][]float64{}
	return spectrum, nil
}

// closeBucket merges the in-progress bucket into a Spectrum at the current
// anchor time. The bucket itself is left untouched.
func (a *SpectrumAggregator) closeBucket() Spectrum {
	values := make(map[float64]float64, len(a.bucket))
	for y, zs := range a.bucket {
		values[y] = a.opts.MergeFunc(zs)
	}
	return Spectrum{Time: a.anchorTime, Values: values}
}

// point extracts the (time, coordinate, intensity) triple from a record.
func (a *SpectrumAggregator) point(record Record) (t, y, z float64, err error) {
	if t, err = fieldAsFloat64(record, a.opts.TimeField); err != nil {
		return 0, 0, 0, err
	}
	if y, err = fieldAsFloat64(record, a.coordKey); err != nil {
		return 0, 0, 0, err
	}
	if z, err = fieldAsFloat64(record, a.opts.IntensityField); err != nil {
		return 0, 0, 0, err
	}
	return t, y, z, nil
}

// CoordinateField returns the resolved coordinate axis, "mz" or "wavelength".
func (a *SpectrumAggregator) CoordinateField() string {
	return a.coordKey
}

// TimeRes returns the configured bucket width threshold.
func (a *SpectrumAggregator) TimeRes() float64 {
	return a.opts.TimeRes
}

// Headers forwards to the wrapped point source.
func (a *SpectrumAggregator) Headers() []string {
	return a.source.Headers()
}

// Format forwards to the wrapped point source.
func (a *SpectrumAggregator) Format() string {
	return a.source.Format()
}

// Close forwards to the wrapped point source.
func (a *SpectrumAggregator) Close() error {
	return a.source.Close()
}

// Source returns the wrapped point source for any introspection beyond the
// aggregator's own surface.
func (a *SpectrumAggregator) Source() PointSource {
	return a.source
}

// fieldAsFloat64 reads a numeric record field, accepting the integer and
// float widths that sources actually produce.
func fieldAsFloat64(record Record, field string) (float64, error) {
	value, exists := record[field]
	if !exists || value == nil {
		return 0, &PointError{Field: field}
	}
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
	default:
		return 0, &PointError{Field: field, Value: value}
	}
}
