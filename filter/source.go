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

// filteredSource wraps a PointSource, skipping points rejected by the filters.
type filteredSource struct {
	source  gospectra.PointSource
	filters []gospectra.Filter
}

// Apply wraps a point source so that only points passing every filter are
// returned from Read. Headers, Format, and Close are forwarded unchanged.
func Apply(source gospectra.PointSource, filters ...gospectra.Filter) gospectra.PointSource {
	if len(filters) == 0 {
		return source
	}
	return &filteredSource{source: source, filters: filters}
}

// Read implements the PointSource interface. It pulls from the wrapped source
// until a point passes all filters or the source is exhausted.
func (f *filteredSource) Read(ctx context.Context) (gospectra.Record, error) {
	for {
		record, err := f.source.Read(ctx)
		if err != nil {
			return nil, err
		}

		include := true
		for _, flt := range f.filters {
			ok, err := flt.ShouldInclude(ctx, record)
			if err != nil {
				return nil, err
			}
			if !ok {
				include = false
				break
			}
		}
		if include {
			return record, nil
		}
	}
}

// Headers implements the PointSource interface.
func (f *filteredSource) Headers() []string {
	return f.source.Headers()
}

// Format implements the PointSource interface.
func (f *filteredSource) Format() string {
	return f.source.Format()
}

// Close implements the PointSource interface.
func (f *filteredSource) Close() error {
	return f.source.Close()
}
