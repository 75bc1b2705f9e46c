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

package merge

// Package merge provides reduction functions applied to the intensities that
// share a coordinate within one time bucket.
//
// A Func receives the full ordered contribution list for a coordinate, in
// pull order from the point source. Order matters to First and Last; the
// arithmetic reductions ignore it.

// Func reduces an ordered sequence of intensities to one merged intensity.
// A Func is called with at least one element.
type Func func(intensities []float64) float64

// Sum adds all contributions. This is the aggregator default.
func Sum(intensities []float64) float64 {
	var total float64
	for _, z := range intensities {
		total += z
	}
	return total
}

// Mean averages the contributions.
func Mean(intensities []float64) float64 {
	if len(intensities) == 0 {
		return 0
	}
	return Sum(intensities) / float64(len(intensities))
}

// Max keeps the largest contribution.
func Max(intensities []float64) float64 {
	result := intensities[0]
	for _, z := range intensities[1:] {
		if z > result {
			result = z
		}
	}
	return result
}

// Min keeps the smallest contribution.
func Min(intensities []float64) float64 {
	result := intensities[0]
	for _, z := range intensities[1:] {
		if z < result {
			result = z
		}
	}
	return result
}

// First keeps the earliest contribution in pull order.
func First(intensities []float64) float64 {
	return intensities[0]
}

// Last keeps the latest contribution in pull order.
func Last(intensities []float64) float64 {
	return intensities[len(intensities)-1]
}

// Count reports the number of contributions rather than an intensity.
// Useful for inspecting how densely a coordinate was sampled.
func Count(intensities []float64) float64 {
	return float64(len(intensities))
}
