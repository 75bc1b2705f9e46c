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

package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aaronlmathis/gospectra"
)

// The connection is lazy, so construction and option handling are testable
// without a running MongoDB.

func TestMongoSource_RequiresDatabase(t *testing.T) {
	_, err := NewMongoSource(WithMongoCollection("scans"))

	var srcErr *MongoSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "validate", srcErr.Op)
	assert.Contains(t, err.Error(), "database")
}

func TestMongoSource_RequiresCollection(t *testing.T) {
	_, err := NewMongoSource(WithMongoDB("lab"))

	var srcErr *MongoSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Contains(t, err.Error(), "collection")
}

func TestMongoSource_RequiresFields(t *testing.T) {
	_, err := NewMongoSource(
		WithMongoDB("lab"),
		WithMongoCollection("scans"),
		WithMongoFields(),
	)

	var srcErr *MongoSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Contains(t, err.Error(), "field")
}

func TestMongoSource_DefaultHeaders(t *testing.T) {
	source, err := NewMongoSource(
		WithMongoDB("lab"),
		WithMongoCollection("scans"),
	)
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, []string{"time", "mz", "intensity"}, source.Headers())
	assert.Equal(t, "mongodb", source.Format())
}

func TestMongoSource_DeclaredHeaders(t *testing.T) {
	source, err := NewMongoSource(
		WithMongoDB("lab"),
		WithMongoCollection("traces"),
		WithMongoFields("time", "wavelength", "intensity"),
	)
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, []string{"time", "wavelength", "intensity"}, source.Headers())
}

func TestMongoSource_PipelineImpliesAggregateMode(t *testing.T) {
	pipeline := []bson.M{
		{"$match": bson.M{"run_id": 7}},
		{"$sort": bson.M{"time": 1}},
	}

	source, err := NewMongoSource(
		WithMongoDB("lab"),
		WithMongoCollection("scans"),
		WithMongoPipeline(pipeline),
	)
	require.NoError(t, err)
	defer source.Close()

	assert.Equal(t, ModeAggregate, source.opts.Mode)
	assert.Equal(t, pipeline, source.opts.Pipeline)
}

func TestMongoSource_OptionOverrides(t *testing.T) {
	source, err := NewMongoSource(
		WithMongoURI("mongodb://db.internal:27017"),
		WithMongoDB("lab"),
		WithMongoCollection("scans"),
		WithMongoFilter(bson.M{"run_id": 7}),
		WithMongoSort(bson.M{"time": 1}),
		WithMongoBatchSize(500),
		WithMongoLimit(10000),
		WithMongoSkip(100),
		WithMongoTimeout(5*time.Second),
		WithMongoPoolSize(2, 20),
		WithMongoAuth("reader", "secret", "admin"),
	)
	require.NoError(t, err)
	defer source.Close()

	opts := source.opts
	assert.Equal(t, "mongodb://db.internal:27017", opts.URI)
	assert.Equal(t, bson.M{"run_id": 7}, opts.Filter)
	assert.Equal(t, bson.M{"time": 1}, opts.Sort)
	assert.Equal(t, int32(500), opts.BatchSize)
	assert.Equal(t, int64(10000), opts.Limit)
	assert.Equal(t, int64(100), opts.Skip)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, uint64(2), opts.MinPoolSize)
	assert.Equal(t, uint64(20), opts.MaxPoolSize)
	assert.Equal(t, "reader", opts.Username)
}

func TestConvertBSONValue(t *testing.T) {
	dec, err := primitive.ParseDecimal128("42.5")
	require.NoError(t, err)

	assert.Equal(t, 42.5, convertBSONValue(dec))
	assert.Equal(t, int32(7), convertBSONValue(int32(7)))
	assert.Equal(t, int64(7), convertBSONValue(int64(7)))
	assert.Equal(t, 1.5, convertBSONValue(1.5))
	assert.Nil(t, convertBSONValue(nil))

	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), convertBSONValue(oid))
}

func TestMongoSource_DocumentToRecord(t *testing.T) {
	source, err := NewMongoSource(
		WithMongoDB("lab"),
		WithMongoCollection("scans"),
	)
	require.NoError(t, err)
	defer source.Close()

	doc := bson.M{
		"_id":       primitive.NewObjectID(),
		"time":      0.5,
		"mz":        100.0,
		"intensity": 3.0,
		"operator":  "ignored",
	}

	record := source.documentToRecord(doc)
	assert.Equal(t, gospectra.Record{"time": 0.5, "mz": 100.0, "intensity": 3.0}, record)
}
