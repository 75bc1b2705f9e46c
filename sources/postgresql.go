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
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/aaronlmathis/gospectra"
)

// Package sources provides implementations of gospectra.PointSource for
// reading measurement points from various backends.
//
// This file implements a PostgreSQL source that streams query results as
// points, with connection pooling and optional server-side cursors for large
// result sets.

// PostgresSourceError provides structured error information for Postgres source operations
type PostgresSourceError struct {
	Op  string // Operation that failed (e.g., "connect", "query", "scan", "read")
	Err error  // Underlying error
}

func (e *PostgresSourceError) Error() string {
	return fmt.Sprintf("postgres source %s: %v", e.Op, e.Err)
}

func (e *PostgresSourceError) Unwrap() error {
	return e.Err
}

// PostgresSourceStats holds statistics about the Postgres source's performance
type PostgresSourceStats struct {
	PointsRead      int64
	QueryDuration   time.Duration
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
	ConnectionTime  time.Duration
}

// PostgresSourceOptions configures the Postgres source
type PostgresSourceOptions struct {
	DSN             string        // Database connection string
	Query           string        // SQL query producing time/coordinate/intensity columns
	Params          []interface{} // Optional query parameters
	BatchSize       int           // Rows per FETCH when using a cursor
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	ConnMaxIdleTime time.Duration // Maximum connection idle time
	MaxOpenConns    int           // Maximum open connections
	MaxIdleConns    int           // Maximum idle connections
	QueryTimeout    time.Duration // Query execution timeout
	UseCursor       bool          // Use server-side cursor for large results
	CursorName      string        // Name for the cursor (if UseCursor is true)
}

// PostgresSourceOption represents a configuration function for PostgresSourceOptions
type PostgresSourceOption func(*PostgresSourceOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresSourceOption {
	return func(opts *PostgresSourceOptions) {
		opts.DSN = dsn
	}
}

// WithPostgresQuery sets the SQL query and optional parameters.
func WithPostgresQuery(query string, params ...interface{}) PostgresSourceOption {
	return func(opts *PostgresSourceOptions) {
		opts.Query = query
		if len(params) > 0 {
			opts.Params = make([]interface{}, len(params))
			copy(opts.Params, params)
		}
	}
}

// WithPostgresBatchSize sets the cursor FETCH batch size.
func WithPostgresBatchSize(size int) PostgresSourceOption {
	return func(opts *PostgresSourceOptions) {
		opts.BatchSize = size
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int) PostgresSourceOption {
	return func(opts *PostgresSourceOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// WithPostgresConnectionTimeout sets connection and idle timeouts.
func WithPostgresConnectionTimeout(lifetime, idleTime time.Duration) PostgresSourceOption {
	return func(opts *PostgresSourceOptions) {
		opts.ConnMaxLifetime = lifetime
		opts.ConnMaxIdleTime = idleTime
	}
}

// WithPostgresQueryTimeout sets the query execution timeout.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresSourceOption {
	return func(opts *PostgresSourceOptions) {
		opts.QueryTimeout = timeout
	}
}

// WithPostgresCursor enables server-side cursor usage for large results.
func WithPostgresCursor(useCursor bool, cursorName string) PostgresSourceOption {
	return func(opts *PostgresSourceOptions) {
		opts.UseCursor = useCursor
		opts.CursorName = cursorName
	}
}

// PostgresSource implements gospectra.PointSource for PostgreSQL databases.
// Each result row becomes one point; column names become the headers.
type PostgresSource struct {
	db          *sql.DB
	tx          *sql.Tx
	rows        *sql.Rows
	columnNames []string
	columnTypes []*sql.ColumnType
	scanBuffer  []interface{}
	values      []interface{}
	cursorName  string
	batchSize   int
	query       string
	params      []interface{}
	opts        *PostgresSourceOptions
	stats       PostgresSourceStats
	isFinished  bool
}

// NewPostgresSource connects, runs the query, and prepares the source for
// streaming. Returns a ready-to-use source or an error.
func NewPostgresSource(ctx context.Context, options ...PostgresSourceOption) (*PostgresSource, error) {
	opts := (&PostgresSourceOptions{}).withDefaults()
	for _, option := range options {
		option(opts)
	}

	if opts.DSN == "" {
		return nil, &PostgresSourceError{Op: "validate", Err: fmt.Errorf("dsn is required")}
	}
	if opts.Query == "" {
		return nil, &PostgresSourceError{Op: "validate", Err: fmt.Errorf("query is required")}
	}

	startTime := time.Now()
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresSourceError{Op: "connect", Err: err}
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	pingCtx := ctx
	if opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.QueryTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &PostgresSourceError{Op: "ping", Err: err}
	}

	source := &PostgresSource{
		db:        db,
		query:     opts.Query,
		params:    opts.Params,
		batchSize: opts.BatchSize,
		opts:      opts,
		stats: PostgresSourceStats{
			NullValueCounts: make(map[string]int64),
			ConnectionTime:  time.Since(startTime),
		},
	}

	if err := source.executeQuery(ctx); err != nil {
		source.Close()
		return nil, err
	}

	return source, nil
}

// Read implements the PointSource interface.
func (p *PostgresSource) Read(ctx context.Context) (gospectra.Record, error) {
	startTime := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(startTime)
		p.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &PostgresSourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	if p.db == nil {
		return nil, &PostgresSourceError{Op: "read", Err: fmt.Errorf("source is closed")}
	}
	if p.isFinished || p.rows == nil {
		return nil, io.EOF
	}

	// Cursor mode pulls further batches before giving up; a FETCH that
	// yields no rows means the cursor is drained.
	justFetched := false
	for !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, &PostgresSourceError{Op: "read", Err: err}
		}
		if p.tx == nil || justFetched {
			p.isFinished = true
			return nil, io.EOF
		}
		if err := p.fetchNextBatch(ctx); err != nil {
			return nil, err
		}
		justFetched = true
	}

	if err := p.rows.Scan(p.scanBuffer...); err != nil {
		return nil, &PostgresSourceError{Op: "scan", Err: err}
	}

	record := p.rowToRecord()
	p.stats.PointsRead++

	return record, nil
}

// Headers implements the PointSource interface.
func (p *PostgresSource) Headers() []string {
	return p.columnNames
}

// Format implements the PointSource interface.
func (p *PostgresSource) Format() string {
	return "postgres"
}

// Close releases all resources held by the PostgreSQL source
func (p *PostgresSource) Close() error {
	var errs []error

	if p.rows != nil {
		if err := p.rows.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing rows: %w", err))
		}
		p.rows = nil
	}

	if p.tx != nil {
		if err := p.tx.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("rolling back transaction: %w", err))
		}
		p.tx = nil
	}

	if p.db != nil {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
		p.db = nil
	}

	if len(errs) > 0 {
		return &PostgresSourceError{Op: "close", Err: fmt.Errorf("multiple errors: %v", errs)}
	}
	return nil
}

// Schema returns a map of column name to database type name.
func (p *PostgresSource) Schema() map[string]string {
	schema := make(map[string]string)
	for i, name := range p.columnNames {
		if i < len(p.columnTypes) {
			schema[name] = p.columnTypes[i].DatabaseTypeName()
		}
	}
	return schema
}

// Stats returns statistics about the PostgreSQL source's performance
func (p *PostgresSource) Stats() PostgresSourceStats {
	statsCopy := p.stats
	statsCopy.NullValueCounts = make(map[string]int64)
	for k, v := range p.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}

// withDefaults applies default values to PostgresSourceOptions
func (opts *PostgresSourceOptions) withDefaults() *PostgresSourceOptions {
	result := &PostgresSourceOptions{}
	if opts != nil {
		*result = *opts
	}

	if result.BatchSize <= 0 {
		result.BatchSize = 1000
	}
	if result.QueryTimeout <= 0 {
		result.QueryTimeout = 30 * time.Second
	}
	if result.ConnMaxLifetime <= 0 {
		result.ConnMaxLifetime = 5 * time.Minute
	}
	if result.ConnMaxIdleTime <= 0 {
		result.ConnMaxIdleTime = 1 * time.Minute
	}
	if result.MaxOpenConns <= 0 {
		result.MaxOpenConns = 10
	}
	if result.MaxIdleConns <= 0 {
		result.MaxIdleConns = 5
	}

	return result
}

// executeQuery runs the SQL query and prepares the source for streaming.
func (p *PostgresSource) executeQuery(ctx context.Context) error {
	startTime := time.Now()

	var err error
	if p.opts.UseCursor {
		err = p.declareCursor(ctx)
	} else {
		p.rows, err = p.db.QueryContext(ctx, p.query, p.params...)
	}
	if err != nil {
		return &PostgresSourceError{Op: "query", Err: err}
	}

	p.stats.QueryDuration = time.Since(startTime)

	columnNames, err := p.rows.Columns()
	if err != nil {
		return &PostgresSourceError{Op: "columns", Err: err}
	}
	p.columnNames = columnNames

	columnTypes, err := p.rows.ColumnTypes()
	if err != nil {
		return &PostgresSourceError{Op: "column_types", Err: err}
	}
	p.columnTypes = columnTypes

	p.prepareScanBuffers()
	return nil
}

// declareCursor opens a transaction-scoped server-side cursor and fetches the
// first batch.
func (p *PostgresSource) declareCursor(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return &PostgresSourceError{Op: "begin_transaction", Err: err}
	}
	p.tx = tx

	cursorName := p.opts.CursorName
	if cursorName == "" {
		cursorName = "gospectra_cursor"
	}
	if !isValidCursorName(cursorName) {
		tx.Rollback()
		p.tx = nil
		return &PostgresSourceError{Op: "validate_cursor",
			Err: fmt.Errorf("invalid cursor name: %s", cursorName)}
	}
	p.cursorName = cursorName

	declareSQL := fmt.Sprintf("DECLARE %s CURSOR FOR %s", cursorName, p.query)
	if _, err := tx.ExecContext(ctx, declareSQL, p.params...); err != nil {
		tx.Rollback()
		p.tx = nil
		return &PostgresSourceError{Op: "declare_cursor", Err: err}
	}

	fetchSQL := fmt.Sprintf("FETCH %d FROM %s", p.batchSize, cursorName)
	p.rows, err = tx.QueryContext(ctx, fetchSQL)
	if err != nil {
		tx.Rollback()
		p.tx = nil
		return &PostgresSourceError{Op: "fetch_cursor", Err: err}
	}
	return nil
}

// fetchNextBatch replaces the exhausted result set with the next cursor batch.
func (p *PostgresSource) fetchNextBatch(ctx context.Context) error {
	if err := p.rows.Close(); err != nil {
		return &PostgresSourceError{Op: "close_batch", Err: err}
	}

	fetchSQL := fmt.Sprintf("FETCH %d FROM %s", p.batchSize, p.cursorName)
	rows, err := p.tx.QueryContext(ctx, fetchSQL)
	if err != nil {
		return &PostgresSourceError{Op: "fetch_cursor", Err: err}
	}
	p.rows = rows
	return nil
}

// isValidCursorName validates cursor name for SQL injection prevention
func isValidCursorName(name string) bool {
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return len(name) > 0 && len(name) <= 63 // PostgreSQL identifier limit
}

// prepareScanBuffers prepares the buffers needed for scanning SQL rows
func (p *PostgresSource) prepareScanBuffers() {
	numCols := len(p.columnNames)
	p.scanBuffer = make([]interface{}, numCols)
	p.values = make([]interface{}, numCols)
	for i := range p.scanBuffer {
		p.scanBuffer[i] = &p.values[i]
	}
}

// convertSQLValue converts SQL driver values to appropriate Go types
func (p *PostgresSource) convertSQLValue(value interface{}, colType *sql.ColumnType) interface{} {
	// Numeric columns arrive as []byte for NUMERIC/DECIMAL; text types too.
	if b, ok := value.([]byte); ok {
		dbType := colType.DatabaseTypeName()
		switch dbType {
		case "TEXT", "VARCHAR", "CHAR", "BPCHAR":
			return string(b)
		case "NUMERIC", "DECIMAL":
			var f float64
			if _, err := fmt.Sscanf(string(b), "%g", &f); err == nil {
				return f
			}
			return string(b)
		default:
			return b
		}
	}

	switch v := value.(type) {
	case time.Time, bool, int64, float64, string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// rowToRecord converts the scanned SQL row values to a gospectra.Record
func (p *PostgresSource) rowToRecord() gospectra.Record {
	record := make(gospectra.Record)

	for i, columnName := range p.columnNames {
		value := p.values[i]
		if value == nil {
			p.stats.NullValueCounts[columnName]++
			record[columnName] = nil
			continue
		}
		record[columnName] = p.convertSQLValue(value, p.columnTypes[i])
	}

	return record
}
