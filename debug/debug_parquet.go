package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/apache/arrow/go/v12/parquet/file"

	"github.com/aaronlmathis/gospectra/sources"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_parquet <file.parquet>")
	}
	path := os.Args[1]

	fmt.Printf("Inspecting %s...\n", path)

	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}

	fmt.Printf("File has %d rows\n", reader.NumRows())
	fmt.Printf("File has %d row groups\n", reader.NumRowGroups())

	schema := reader.Schema()
	fmt.Printf("Schema has %d columns:\n", schema.NumColumns())
	for i := 0; i < schema.NumColumns(); i++ {
		col := schema.Column(i)
		fmt.Printf("  Column %d: %s (%s)\n", i, col.Name(), col.PhysicalType())
	}
	reader.Close()

	source, err := sources.NewParquetSource(path)
	if err != nil {
		log.Fatalf("Failed to open point source: %v", err)
	}
	defer source.Close()

	fmt.Printf("Headers: %v\n", source.Headers())

	// First few points as the aggregator would see them
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		record, err := source.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Read failed: %v", err)
		}
		fmt.Printf("  Point %d: %v\n", i, record)
	}

	stats := source.Stats()
	fmt.Printf("Points read: %d\n", stats.PointsRead)
}
