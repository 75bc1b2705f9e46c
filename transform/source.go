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

	"github.com/aaronlmathis/gospectra"
)

// transformedSource wraps a PointSource, applying transformers to each point.
type transformedSource struct {
	source       gospectra.PointSource
	transformers []gospectra.Transformer
	headers      []string
}

// Apply wraps a point source so that every point passes through the given
// transformers in order. When transformers rename or add fields, pass the
// resulting field names as headers so the aggregator can resolve the
// coordinate modality; pass nil to keep the wrapped source's headers.
func Apply(source gospectra.PointSource, headers []string, transformers ...gospectra.Transformer) gospectra.PointSource {
	if len(transformers) == 0 && headers == nil {
		return source
	}
	return &transformedSource{
		source:       source,
		transformers: transformers,
		headers:      headers,
	}
}

// Read implements the PointSource interface.
func (t *transformedSource) Read(ctx context.Context) (gospectra.Record, error) {
	record, err := t.source.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, tr := range t.transformers {
		record, err = tr.Transform(ctx, record)
		if err != nil {
			return nil, err
		}
	}
	return record, nil
}

// Headers implements the PointSource interface.
func (t *transformedSource) Headers() []string {
	if t.headers != nil {
		return t.headers
	}
	return t.source.Headers()
}

// Format implements the PointSource interface.
func (t *transformedSource) Format() string {
	return t.source.Format()
}

// Close implements the PointSource interface.
func (t *transformedSource) Close() error {
	return t.source.Close()
}
