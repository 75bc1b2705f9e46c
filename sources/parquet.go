package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/arrow/memory"
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/gospectra"
)

// ParquetSourceError provides structured error information for parquet source operations
type ParquetSourceError struct {
	Op  string // Operation that failed (e.g., "read", "load_batch", "open_file", "schema")
	Err error  // Underlying error
}

func (e *ParquetSourceError) Error() string {
	return fmt.Sprintf("parquet source %s: %v", e.Op, e.Err)
}

func (e *ParquetSourceError) Unwrap() error {
	return e.Err
}

// ParquetSourceStats holds statistics about the parquet source's performance
type ParquetSourceStats struct {
	PointsRead      int64
	BatchesRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// ParquetSourceOptions configures the parquet source.
// Columns optionally projects the file down to the measurement columns.
type ParquetSourceOptions struct {
	BatchSize int64
	Columns   []string
}

// SourceOptionParquet represents a configuration function
type SourceOptionParquet func(*ParquetSourceOptions)

func WithParquetBatchSize(size int64) SourceOptionParquet {
	return func(opts *ParquetSourceOptions) {
		opts.BatchSize = size
	}
}

func WithParquetColumns(columns ...string) SourceOptionParquet {
	return func(opts *ParquetSourceOptions) {
		// Defensive copy to avoid shared slices
		opts.Columns = make([]string, len(columns))
		copy(opts.Columns, columns)
	}
}

// ParquetSource implements gospectra.PointSource for Parquet measurement files.
// Rows are pulled batch-by-batch through an Arrow RecordReader and handed out
// one point at a time.
type ParquetSource struct {
	fileHandle      *os.File
	reader          *file.Reader
	arrowReader     *pqarrow.FileReader
	recordReader    pqarrow.RecordReader
	currentBatch    arrow.Record
	currentBatchIdx int
	schema          *arrow.Schema
	headers         []string
	stats           ParquetSourceStats
	opts            *ParquetSourceOptions
}

// NewParquetSource opens a Parquet file and prepares an Arrow RecordReader
func NewParquetSource(filename string, options ...SourceOptionParquet) (*ParquetSource, error) {
	opts := &ParquetSourceOptions{BatchSize: 1000}
	for _, option := range options {
		option(opts)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParquetSourceError{Op: "open_file", Err: err}
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "create_reader", Err: err}
	}

	// Create Arrow FileReader with memory allocator
	allocator := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{}, allocator)
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "create_arrow_reader", Err: err}
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "get_schema", Err: err}
	}

	// Prepare column index projection if requested
	var colIndices []int
	if len(opts.Columns) > 0 {
		for _, name := range opts.Columns {
			idx := -1
			for i, field := range schema.Fields() {
				if field.Name == name {
					idx = i
					break
				}
			}
			if idx < 0 {
				f.Close()
				return nil, &ParquetSourceError{Op: "column_projection", Err: fmt.Errorf("column %q not found in schema", name)}
			}
			colIndices = append(colIndices, idx)
		}
	}

	recordReader, err := arrowReader.GetRecordReader(context.Background(), colIndices, nil)
	if err != nil {
		f.Close()
		return nil, &ParquetSourceError{Op: "create_record_reader", Err: err}
	}

	headers := opts.Columns
	if len(headers) == 0 {
		for _, field := range schema.Fields() {
			headers = append(headers, field.Name)
		}
	}

	return &ParquetSource{
		fileHandle:   f,
		reader:       parquetReader,
		arrowReader:  arrowReader,
		recordReader: recordReader,
		schema:       schema,
		headers:      headers,
		stats:        ParquetSourceStats{NullValueCounts: make(map[string]int64)},
		opts:         opts,
	}, nil
}

// Read implements the PointSource interface, returning one row per call.
func (p *ParquetSource) Read(ctx context.Context) (gospectra.Record, error) {
	startTime := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(startTime)
		p.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &ParquetSourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	if p.currentBatch == nil || p.currentBatchIdx >= int(p.currentBatch.NumRows()) {
		if err := p.loadNextBatch(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &ParquetSourceError{Op: "load_batch", Err: err}
		}
	}

	if p.currentBatch.NumRows() == 0 {
		return nil, io.EOF
	}

	result := p.extractRecordFromBatch(p.currentBatch, p.currentBatchIdx)
	p.currentBatchIdx++
	p.stats.PointsRead++

	return result, nil
}

// Headers implements the PointSource interface.
func (p *ParquetSource) Headers() []string {
	return p.headers
}

// Format implements the PointSource interface.
func (p *ParquetSource) Format() string {
	return "parquet"
}

// Close releases resources and closes the underlying file
func (p *ParquetSource) Close() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}
	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.fileHandle != nil {
		return p.fileHandle.Close()
	}
	return nil
}

// Schema returns the Arrow schema of the Parquet file
func (p *ParquetSource) Schema() *arrow.Schema {
	return p.schema
}

// Stats returns statistics about the parquet source's performance
func (p *ParquetSource) Stats() ParquetSourceStats {
	return p.stats
}

func (p *ParquetSource) loadNextBatch() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}

	rec, err := p.recordReader.Read()
	if err != nil {
		return err
	}
	if rec == nil || rec.NumRows() == 0 {
		return io.EOF
	}

	p.currentBatch = rec
	p.currentBatchIdx = 0
	p.stats.BatchesRead++
	return nil
}

// extractRecordFromBatch builds a gospectra.Record from a row in an Arrow Record batch
func (p *ParquetSource) extractRecordFromBatch(record arrow.Record, pos int) gospectra.Record {
	res := make(gospectra.Record)
	sch := record.Schema()
	for i := 0; i < int(record.NumCols()); i++ {
		field := sch.Field(i)
		col := record.Column(i)
		res[field.Name] = p.extractValueFromColumn(col, pos, field.Name)
	}
	return res
}

// extractValueFromColumn converts one Arrow cell to a Go value, counting nulls.
func (p *ParquetSource) extractValueFromColumn(col arrow.Array, rowIdx int, fieldName string) interface{} {
	if col.IsNull(rowIdx) {
		p.stats.NullValueCounts[fieldName]++
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(rowIdx)
	case *array.Int8:
		return int8(arr.Value(rowIdx))
	case *array.Int16:
		return int16(arr.Value(rowIdx))
	case *array.Int32:
		return int32(arr.Value(rowIdx))
	case *array.Int64:
		return int64(arr.Value(rowIdx))
	case *array.Uint8:
		return uint8(arr.Value(rowIdx))
	case *array.Uint16:
		return uint16(arr.Value(rowIdx))
	case *array.Uint32:
		return uint32(arr.Value(rowIdx))
	case *array.Uint64:
		return uint64(arr.Value(rowIdx))
	case *array.Float32:
		return float32(arr.Value(rowIdx))
	case *array.Float64:
		return arr.Value(rowIdx)
	case *array.String:
		return arr.Value(rowIdx)
	case *array.Binary:
		return arr.Value(rowIdx)
	case *array.Timestamp:
		return arr.Value(rowIdx).ToTime(arrow.Microsecond)
	default:
		// Fallback to string representation
		return fmt.Sprintf("%v", col.GetOneForMarshal(rowIdx))
	}
}
