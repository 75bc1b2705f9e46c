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
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aaronlmathis/gospectra"
)

// MongoSourceError provides structured error information for MongoDB source operations
type MongoSourceError struct {
	Op         string // Operation that failed (e.g., "connect", "query", "decode")
	Collection string // Collection being accessed when error occurred
	Err        error  // Underlying error
}

func (e *MongoSourceError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("mongo source %s [%s]: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("mongo source %s: %v", e.Op, e.Err)
}

func (e *MongoSourceError) Unwrap() error {
	return e.Err
}

// MongoSourceStats holds statistics about the MongoDB source's performance
type MongoSourceStats struct {
	PointsRead      int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// MongoReadMode defines how points are read from MongoDB
type MongoReadMode string

const (
	ModeFind      MongoReadMode = "find"      // Standard find query
	ModeAggregate MongoReadMode = "aggregate" // Aggregation pipeline
)

// MongoSourceOptions configures the MongoDB source
type MongoSourceOptions struct {
	URI             string        // MongoDB connection URI
	Database        string        // Database name
	Collection      string        // Collection name
	Mode            MongoReadMode // Read mode
	Filter          bson.M        // Query filter for find operations
	Sort            bson.M        // Sort specification
	Pipeline        []bson.M      // Aggregation pipeline stages
	Fields          []string      // Document fields exposed as headers
	BatchSize       int32         // Batch size for cursor
	Limit           int64         // Maximum number of documents to read
	Skip            int64         // Number of documents to skip
	Timeout         time.Duration // Operation timeout
	MaxPoolSize     uint64        // Connection pool size
	MinPoolSize     uint64        // Minimum connections in pool
	MaxConnIdleTime time.Duration // Max idle time for connections
	Username        string        // Authentication username
	Password        string        // Authentication password
	AuthDatabase    string        // Authentication database
}

// SourceOptionMongo is a functional option for MongoSourceOptions
type SourceOptionMongo func(*MongoSourceOptions)

func WithMongoURI(uri string) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.URI = uri }
}

func WithMongoDB(database string) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.Database = database }
}

func WithMongoCollection(collection string) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.Collection = collection }
}

func WithMongoFilter(filter bson.M) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.Filter = filter }
}

func WithMongoSort(sort bson.M) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.Sort = sort }
}

func WithMongoPipeline(pipeline []bson.M) SourceOptionMongo {
	return func(opts *MongoSourceOptions) {
		opts.Pipeline = pipeline
		opts.Mode = ModeAggregate
	}
}

// WithMongoFields declares the document fields exposed through Headers().
// Defaults to time, mz, intensity.
func WithMongoFields(fields ...string) SourceOptionMongo {
	return func(opts *MongoSourceOptions) {
		opts.Fields = make([]string, len(fields))
		copy(opts.Fields, fields)
	}
}

func WithMongoLimit(limit int64) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.Limit = limit }
}

func WithMongoSkip(skip int64) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.Skip = skip }
}

func WithMongoBatchSize(batchSize int32) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.BatchSize = batchSize }
}

func WithMongoTimeout(timeout time.Duration) SourceOptionMongo {
	return func(opts *MongoSourceOptions) { opts.Timeout = timeout }
}

func WithMongoPoolSize(min, max uint64) SourceOptionMongo {
	return func(opts *MongoSourceOptions) {
		opts.MinPoolSize = min
		opts.MaxPoolSize = max
	}
}

func WithMongoAuth(username, password, authDB string) SourceOptionMongo {
	return func(opts *MongoSourceOptions) {
		opts.Username = username
		opts.Password = password
		opts.AuthDatabase = authDB
	}
}

// MongoSource implements gospectra.PointSource for MongoDB collections.
// Each document becomes one point; the declared field list supplies the
// headers since documents carry no schema.
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
	cursor     *mongo.Cursor
	connected  bool
	opts       *MongoSourceOptions
	stats      MongoSourceStats
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewMongoSource creates a new MongoDB point source. The connection is
// established lazily on the first Read.
func NewMongoSource(options ...SourceOptionMongo) (*MongoSource, error) {
	opts := &MongoSourceOptions{
		URI:             "mongodb://localhost:27017",
		Mode:            ModeFind,
		Fields:          []string{gospectra.TimeField, gospectra.MzField, gospectra.IntensityField},
		BatchSize:       1000,
		Timeout:         30 * time.Second,
		MaxPoolSize:     100,
		MinPoolSize:     5,
		MaxConnIdleTime: 10 * time.Minute,
	}
	for _, option := range options {
		option(opts)
	}

	if opts.Database == "" {
		return nil, &MongoSourceError{Op: "validate", Err: fmt.Errorf("database name is required")}
	}
	if opts.Collection == "" {
		return nil, &MongoSourceError{Op: "validate", Err: fmt.Errorf("collection name is required")}
	}
	if len(opts.Fields) == 0 {
		return nil, &MongoSourceError{Op: "validate", Err: fmt.Errorf("at least one field is required")}
	}

	source := &MongoSource{
		opts:  opts,
		stats: MongoSourceStats{NullValueCounts: make(map[string]int64)},
	}
	source.ctx, source.cancel = context.WithCancel(context.Background())

	return source, nil
}

// Connect establishes the connection to MongoDB.
func (m *MongoSource) Connect(ctx context.Context) error {
	if m.connected {
		return nil
	}

	clientOpts := options.Client().ApplyURI(m.opts.URI)
	clientOpts.SetMaxPoolSize(m.opts.MaxPoolSize)
	clientOpts.SetMinPoolSize(m.opts.MinPoolSize)
	clientOpts.SetMaxConnIdleTime(m.opts.MaxConnIdleTime)
	if m.opts.Username != "" {
		cred := options.Credential{
			Username: m.opts.Username,
			Password: m.opts.Password,
		}
		if m.opts.AuthDatabase != "" {
			cred.AuthSource = m.opts.AuthDatabase
		}
		clientOpts.SetAuth(cred)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return &MongoSourceError{Op: "connect", Err: err}
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return &MongoSourceError{Op: "ping", Err: err}
	}

	m.client = client
	m.collection = client.Database(m.opts.Database).Collection(m.opts.Collection)
	m.connected = true

	return nil
}

// Read implements the PointSource interface.
func (m *MongoSource) Read(ctx context.Context) (gospectra.Record, error) {
	start := time.Now()
	defer func() {
		m.stats.ReadDuration += time.Since(start)
		m.stats.LastReadTime = time.Now()
	}()

	if !m.connected {
		if err := m.Connect(ctx); err != nil {
			return nil, err
		}
	}
	if m.cursor == nil {
		if err := m.initializeCursor(ctx); err != nil {
			return nil, &MongoSourceError{Op: "init_cursor", Collection: m.opts.Collection, Err: err}
		}
	}

	select {
	case <-ctx.Done():
		return nil, &MongoSourceError{Op: "read", Collection: m.opts.Collection, Err: ctx.Err()}
	default:
	}

	if !m.cursor.Next(ctx) {
		if err := m.cursor.Err(); err != nil {
			return nil, &MongoSourceError{Op: "cursor_next", Collection: m.opts.Collection, Err: err}
		}
		return nil, io.EOF
	}

	var doc bson.M
	if err := m.cursor.Decode(&doc); err != nil {
		return nil, &MongoSourceError{Op: "decode", Collection: m.opts.Collection, Err: err}
	}

	record := m.documentToRecord(doc)
	m.stats.PointsRead++

	for key, val := range record {
		if val == nil {
			m.stats.NullValueCounts[key]++
		}
	}

	return record, nil
}

// Headers implements the PointSource interface.
func (m *MongoSource) Headers() []string {
	return m.opts.Fields
}

// Format implements the PointSource interface.
func (m *MongoSource) Format() string {
	return "mongodb"
}

// Close implements the PointSource interface.
func (m *MongoSource) Close() error {
	var errs []string

	if m.cursor != nil {
		if err := m.cursor.Close(m.ctx); err != nil {
			errs = append(errs, fmt.Sprintf("cursor close: %v", err))
		}
		m.cursor = nil
	}
	if m.client != nil {
		if err := m.client.Disconnect(m.ctx); err != nil {
			errs = append(errs, fmt.Sprintf("disconnect: %v", err))
		}
		m.client = nil
	}
	m.connected = false
	m.cancel()

	if len(errs) > 0 {
		return &MongoSourceError{Op: "close", Err: fmt.Errorf("%v", errs)}
	}
	return nil
}

// Stats returns statistics about the MongoDB source's performance
func (m *MongoSource) Stats() MongoSourceStats {
	return m.stats
}

// initializeCursor opens the find or aggregate cursor.
func (m *MongoSource) initializeCursor(ctx context.Context) error {
	var err error

	switch m.opts.Mode {
	case ModeAggregate:
		aggOpts := options.Aggregate().SetBatchSize(m.opts.BatchSize)
		pipeline := make([]interface{}, len(m.opts.Pipeline))
		for i, stage := range m.opts.Pipeline {
			pipeline[i] = stage
		}
		m.cursor, err = m.collection.Aggregate(ctx, pipeline, aggOpts)
	default:
		findOpts := options.Find().SetBatchSize(m.opts.BatchSize)
		if m.opts.Sort != nil {
			findOpts.SetSort(m.opts.Sort)
		}
		if m.opts.Limit > 0 {
			findOpts.SetLimit(m.opts.Limit)
		}
		if m.opts.Skip > 0 {
			findOpts.SetSkip(m.opts.Skip)
		}
		filter := m.opts.Filter
		if filter == nil {
			filter = bson.M{}
		}
		m.cursor, err = m.collection.Find(ctx, filter, findOpts)
	}

	return err
}

// documentToRecord flattens a BSON document into a point record, keeping only
// the declared fields.
func (m *MongoSource) documentToRecord(doc bson.M) gospectra.Record {
	record := make(gospectra.Record, len(m.opts.Fields))
	for _, field := range m.opts.Fields {
		record[field] = convertBSONValue(doc[field])
	}
	return record
}

// convertBSONValue maps BSON scalar types onto the Go types the aggregator
// understands.
func convertBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.Decimal128:
		if f, err := strconvDecimal128(v); err == nil {
			return f
		}
		return v.String()
	case primitive.DateTime:
		return v.Time()
	case primitive.ObjectID:
		return v.Hex()
	case int32:
		return v
	case int64:
		return v
	case float64:
		return v
	default:
		return v
	}
}

// strconvDecimal128 converts a BSON decimal to float64.
func strconvDecimal128(d primitive.Decimal128) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(d.String(), "%g", &f)
	return f, err
}
