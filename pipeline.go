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

// PipelineBuilder provides a fluent API for constructing aggregation
// pipelines. Use NewPipeline() to create a new builder, then chain From,
// TimeRes, MergeFunc, To, and configuration methods.
//
// Example usage:
//
//	pipeline, err := gospectra.NewPipeline().
//	    From(csvSource).
//	    TimeRes(0.5).
//	    MergeFunc(merge.Mean).
//	    To(csvSink).
//	    Build()
//	if err != nil { log.Fatal(err) }
//	if err := pipeline.Execute(context.Background()); err != nil { log.Fatal(err) }
type PipelineBuilder struct {
	pipeline *Pipeline
}

// NewPipeline creates a new PipelineBuilder for constructing a pipeline.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{
		pipeline: &Pipeline{
			strategy: FailFast,
		},
	}
}

// From sets the PointSource for the pipeline.
func (pb *PipelineBuilder) From(source PointSource) *PipelineBuilder {
	pb.pipeline.source = source
	return pb
}

// TimeRes sets the bucket width threshold for the aggregator.
func (pb *PipelineBuilder) TimeRes(timeRes float64) *PipelineBuilder {
	pb.pipeline.aggOptions = append(pb.pipeline.aggOptions, WithTimeRes(timeRes))
	return pb
}

// MergeFunc sets the merge function for the aggregator.
func (pb *PipelineBuilder) MergeFunc(fn merge.Func) *PipelineBuilder {
	pb.pipeline.aggOptions = append(pb.pipeline.aggOptions, WithMergeFunc(fn))
	return pb
}

// WithAggregatorOptions appends raw aggregator options, for settings without
// a dedicated builder method (field name overrides, for instance).
func (pb *PipelineBuilder) WithAggregatorOptions(options ...AggregatorOption) *PipelineBuilder {
	pb.pipeline.aggOptions = append(pb.pipeline.aggOptions, options...)
	return pb
}

// To sets the SpectrumSink for the pipeline.
func (pb *PipelineBuilder) To(sink SpectrumSink) *PipelineBuilder {
	pb.pipeline.sink = sink
	return pb
}

// WithErrorStrategy sets the handling of sink write errors.
func (pb *PipelineBuilder) WithErrorStrategy(strategy ErrorStrategy) *PipelineBuilder {
	pb.pipeline.strategy = strategy
	return pb
}

// WithErrorHandler sets a custom handler for sink write errors.
func (pb *PipelineBuilder) WithErrorHandler(handler ErrorHandler) *PipelineBuilder {
	pb.pipeline.errorHandler = handler
	return pb
}

// Build validates and constructs the Pipeline from the builder.
func (pb *PipelineBuilder) Build() (*Pipeline, error) {
	if pb.pipeline.source == nil {
		return nil, fmt.Errorf("pipeline requires a point source")
	}
	if pb.pipeline.sink == nil {
		return nil, fmt.Errorf("pipeline requires a spectrum sink")
	}
	return pb.pipeline, nil
}

// Pipeline aggregates a point stream into spectra and writes them to a sink.
type Pipeline struct {
	source       PointSource
	sink         SpectrumSink
	aggOptions   []AggregatorOption
	strategy     ErrorStrategy
	errorHandler ErrorHandler
}

// Execute runs the pipeline, draining the source into the sink.
//
// Source and aggregation errors abort the run: once a pull fails the bucket
// in progress is unrecoverable. The configured ErrorStrategy and ErrorHandler
// apply to sink write failures only.
func (p *Pipeline) Execute(ctx context.Context) error {
	defer func() {
		if p.source != nil {
			p.source.Close()
		}
		if p.sink != nil {
			p.sink.Flush()
			p.sink.Close()
		}
	}()

	aggregator, err := NewSpectrumAggregator(ctx, p.source, p.aggOptions...)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		spectrum, err := aggregator.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if err := p.sink.Write(ctx, spectrum); err != nil {
			if err := p.handleWriteError(ctx, spectrum, err); err != nil {
				return err
			}
		}
	}

	return nil
}

// handleWriteError applies the pipeline's error strategy to a write failure.
func (p *Pipeline) handleWriteError(ctx context.Context, spectrum Spectrum, err error) error {
	switch p.strategy {
	case FailFast:
		return err
	case SkipErrors, CollectErrors:
		if p.errorHandler != nil {
			return p.errorHandler.HandleError(ctx, spectrum, err)
		}
		return nil
	default:
		return err
	}
}
