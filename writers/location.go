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

package writers

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aaronlmathis/gospectra"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// OutputFormat represents a supported sink format.
type OutputFormat int

const (
	FormatCSV OutputFormat = iota
	FormatJSON
)

// OutputLocation creates a SpectrumSink for a given format.
type OutputLocation interface {
	NewSink(format OutputFormat) (gospectra.SpectrumSink, error)
}

// FileLocation writes spectra to a local filesystem path.
type FileLocation struct {
	Path string
}

// NewSink instantiates a writer for the file location.
func (f FileLocation) NewSink(format OutputFormat) (gospectra.SpectrumSink, error) {
	switch format {
	case FormatCSV:
		file, err := os.Create(f.Path)
		if err != nil {
			return nil, err
		}
		return NewCSVWriter(file)
	case FormatJSON:
		file, err := os.Create(f.Path)
		if err != nil {
			return nil, err
		}
		return NewJSONWriter(file), nil
	default:
		return nil, fmt.Errorf("unsupported format for FileLocation")
	}
}

// S3Location uploads spectra to an S3 object.
type S3Location struct {
	Bucket   string
	Key      string
	Uploader *s3manager.Uploader
}

type s3WriteCloser struct {
	buf      *bytes.Buffer
	uploader *s3manager.Uploader
	bucket   string
	key      string
}

func newS3WriteCloser(u *s3manager.Uploader, bucket, key string) *s3WriteCloser {
	return &s3WriteCloser{
		buf:      &bytes.Buffer{},
		uploader: u,
		bucket:   bucket,
		key:      key,
	}
}

func (s *s3WriteCloser) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *s3WriteCloser) Close() error {
	_, err := s.uploader.Upload(context.TODO(), &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &s.key,
		Body:   bytes.NewReader(s.buf.Bytes()),
	})
	return err
}

// NewSink creates a writer that buffers spectra and uploads on Close.
func (s S3Location) NewSink(format OutputFormat) (gospectra.SpectrumSink, error) {
	if s.Uploader == nil {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, err
		}
		s.Uploader = s3manager.NewUploader(s3.NewFromConfig(cfg))
	}

	switch format {
	case FormatCSV:
		return NewCSVWriter(newS3WriteCloser(s.Uploader, s.Bucket, s.Key))
	case FormatJSON:
		return NewJSONWriter(newS3WriteCloser(s.Uploader, s.Bucket, s.Key)), nil
	default:
		return nil, fmt.Errorf("unsupported format for S3Location")
	}
}
