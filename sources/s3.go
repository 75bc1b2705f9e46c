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
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/gospectra"
)

// S3SourceError provides structured error information for S3 source operations
type S3SourceError struct {
	Op  string // Operation that failed (e.g., "list_objects", "get_object", "read")
	Err error  // Underlying error
}

func (e *S3SourceError) Error() string {
	return fmt.Sprintf("s3 source %s: %v", e.Op, e.Err)
}

func (e *S3SourceError) Unwrap() error {
	return e.Err
}

// S3SourceStats holds statistics about the S3 source's performance
type S3SourceStats struct {
	ObjectsListed  int64
	ObjectsRead    int64
	PointsRead     int64
	ReadDuration   time.Duration
	LastReadTime   time.Time
	CurrentObject  string
	ProcessedFiles []string
}

// S3SourceOptions configures the S3 source behavior
type S3SourceOptions struct {
	Bucket         string          // S3 bucket name
	Prefix         string          // Key prefix filter
	Suffix         string          // Key suffix filter (e.g., ".csv", ".jsonl")
	MaxKeys        int32           // Maximum number of objects to list
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
	Recursive      bool            // Process subdirectories recursively
}

// SourceOptionS3 represents a configuration function for S3Source
type SourceOptionS3 func(*S3SourceOptions)

func WithS3Bucket(bucket string) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.Bucket = bucket }
}

func WithS3Prefix(prefix string) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.Prefix = prefix }
}

func WithS3Suffix(suffix string) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.Suffix = suffix }
}

func WithS3Region(region string) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.Region = region }
}

func WithS3Profile(profile string) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.Profile = profile }
}

func WithS3Credentials(creds aws.Credentials) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.Credentials = creds }
}

func WithS3Endpoint(endpoint string) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.EndpointURL = endpoint }
}

func WithS3PathStyle(pathStyle bool) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.ForcePathStyle = pathStyle }
}

func WithS3MaxKeys(maxKeys int32) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.MaxKeys = maxKeys }
}

func WithS3Recursive(recursive bool) SourceOptionS3 {
	return func(opts *S3SourceOptions) { opts.Recursive = recursive }
}

// S3Source implements gospectra.PointSource for measurement exports stored in
// Amazon S3 (or an S3-compatible service). Matching objects are streamed in
// key order, each decoded by a CSV or JSON source; the point stream continues
// seamlessly across object boundaries.
type S3Source struct {
	client        *s3.Client
	objects       []string
	currentIndex  int
	currentSource gospectra.PointSource
	headers       []string
	stats         S3SourceStats
	opts          S3SourceOptions
}

// NewS3Source lists the matching objects and opens the first one so the
// schema is known up front.
func NewS3Source(ctx context.Context, options ...SourceOptionS3) (*S3Source, error) {
	opts := S3SourceOptions{
		MaxKeys:   1000,
		Recursive: true,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3SourceError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := loadAWSConfig(ctx, opts)
	if err != nil {
		return nil, &S3SourceError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	source := &S3Source{
		client: client,
		opts:   opts,
		stats:  S3SourceStats{ProcessedFiles: make([]string, 0)},
	}

	if err := source.listObjects(ctx); err != nil {
		return nil, &S3SourceError{Op: "list_objects", Err: err}
	}
	if len(source.objects) == 0 {
		return nil, &S3SourceError{Op: "list_objects", Err: fmt.Errorf("no objects match prefix %q suffix %q", opts.Prefix, opts.Suffix)}
	}

	// Open the first object now; the aggregator needs headers before the
	// first pull.
	if err := source.openNextObject(ctx); err != nil {
		return nil, err
	}
	source.headers = source.currentSource.Headers()

	return source, nil
}

// Read implements the PointSource interface.
func (s *S3Source) Read(ctx context.Context) (gospectra.Record, error) {
	start := time.Now()
	defer func() {
		s.stats.ReadDuration += time.Since(start)
		s.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &S3SourceError{Op: "read", Err: ctx.Err()}
	default:
	}

	for {
		if s.currentSource == nil {
			if s.currentIndex >= len(s.objects) {
				return nil, io.EOF
			}
			if err := s.openNextObject(ctx); err != nil {
				return nil, err
			}
		}

		record, err := s.currentSource.Read(ctx)
		if err == io.EOF {
			// Current object is done, move to the next one.
			s.closeCurrentSource()
			continue
		}
		if err != nil {
			return nil, &S3SourceError{Op: "read_point", Err: err}
		}

		s.stats.PointsRead++
		return record, nil
	}
}

// Headers implements the PointSource interface. The schema is taken from the
// first object; subsequent objects are expected to match it.
func (s *S3Source) Headers() []string {
	return s.headers
}

// Format implements the PointSource interface.
func (s *S3Source) Format() string {
	return "s3"
}

// Close implements the PointSource interface.
func (s *S3Source) Close() error {
	return s.closeCurrentSource()
}

// Stats returns S3 source performance statistics
func (s *S3Source) Stats() S3SourceStats {
	return s.stats
}

// Objects returns the keys of the objects that will be/have been processed.
func (s *S3Source) Objects() []string {
	return s.objects
}

// loadAWSConfig creates AWS configuration from options
func loadAWSConfig(ctx context.Context, opts S3SourceOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	// Override with explicit credentials if provided
	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}

// listObjects retrieves and filters object keys from S3
func (s *S3Source) listObjects(ctx context.Context) error {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.opts.Bucket),
		MaxKeys: &s.opts.MaxKeys,
	}
	if s.opts.Prefix != "" {
		input.Prefix = aws.String(s.opts.Prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if s.shouldIncludeObject(*obj.Key) {
				s.objects = append(s.objects, *obj.Key)
			}
		}
	}

	s.stats.ObjectsListed = int64(len(s.objects))
	return nil
}

// shouldIncludeObject determines if an object should be processed
func (s *S3Source) shouldIncludeObject(key string) bool {
	if s.opts.Suffix != "" && !strings.HasSuffix(key, s.opts.Suffix) {
		return false
	}
	if !s.opts.Recursive && strings.Contains(strings.TrimPrefix(key, s.opts.Prefix), "/") {
		return false
	}
	return true
}

// openNextObject opens the next S3 object for reading
func (s *S3Source) openNextObject(ctx context.Context) error {
	key := s.objects[s.currentIndex]
	s.stats.CurrentObject = key

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &S3SourceError{Op: "get_object", Err: fmt.Errorf("failed to get object %s: %w", key, err)}
	}

	source, err := s.sourceForObject(result.Body, key)
	if err != nil {
		result.Body.Close()
		return &S3SourceError{Op: "open_object", Err: fmt.Errorf("failed to open %s: %w", key, err)}
	}

	s.currentSource = source
	s.stats.ObjectsRead++
	s.stats.ProcessedFiles = append(s.stats.ProcessedFiles, key)

	return nil
}

// sourceForObject creates the appropriate decoding source based on file extension
func (s *S3Source) sourceForObject(body io.ReadCloser, key string) (gospectra.PointSource, error) {
	ext := strings.ToLower(filepath.Ext(key))

	switch ext {
	case ".csv":
		return NewCSVSource(body)
	case ".tsv", ".txt":
		return NewCSVSource(body, WithCSVComma('\t'))
	case ".json", ".jsonl":
		return NewJSONSource(body)
	default:
		// Default to line-delimited JSON
		return NewJSONSource(body)
	}
}

// closeCurrentSource closes the current object's decoding source
func (s *S3Source) closeCurrentSource() error {
	if s.currentSource != nil {
		err := s.currentSource.Close()
		s.currentSource = nil
		s.currentIndex++
		return err
	}
	return nil
}
