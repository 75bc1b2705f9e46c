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
	"net/http"
	"strings"
	"time"

	"github.com/aaronlmathis/gospectra"
)

// HTTPSourceError provides structured error information for HTTP source operations
type HTTPSourceError struct {
	Op  string // Operation that failed (e.g., "request", "status", "decode")
	Err error  // Underlying error
}

func (e *HTTPSourceError) Error() string {
	return fmt.Sprintf("http source %s: %v", e.Op, e.Err)
}

func (e *HTTPSourceError) Unwrap() error {
	return e.Err
}

// HTTPAuthConfig holds authentication settings for the HTTP source.
type HTTPAuthConfig struct {
	BearerToken string
	Username    string
	Password    string
	APIKeyName  string
	APIKeyValue string
}

// HTTPSourceOptions configures the HTTP source behavior
type HTTPSourceOptions struct {
	Method         string
	Headers        map[string]string
	Auth           *HTTPAuthConfig
	Timeout        time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	ResponseFormat string // "csv", "tsv" or "json"; inferred from Content-Type when empty
	Client         *http.Client
}

// SourceOptionHTTP represents a configuration function for HTTPSource
type SourceOptionHTTP func(*HTTPSourceOptions)

func WithHTTPMethod(method string) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) { opts.Method = method }
}

func WithHTTPHeaders(headers map[string]string) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) {
		if opts.Headers == nil {
			opts.Headers = make(map[string]string)
		}
		for k, v := range headers {
			opts.Headers[k] = v
		}
	}
}

func WithHTTPBearerToken(token string) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) {
		opts.Auth = &HTTPAuthConfig{BearerToken: token}
	}
}

func WithHTTPBasicAuth(username, password string) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) {
		opts.Auth = &HTTPAuthConfig{Username: username, Password: password}
	}
}

func WithHTTPAPIKey(headerName, apiKey string) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) {
		opts.Auth = &HTTPAuthConfig{APIKeyName: headerName, APIKeyValue: apiKey}
	}
}

func WithHTTPTimeout(timeout time.Duration) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) { opts.Timeout = timeout }
}

func WithHTTPRetries(attempts int, delay time.Duration) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) {
		opts.RetryAttempts = attempts
		opts.RetryDelay = delay
	}
}

func WithHTTPResponseFormat(format string) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) { opts.ResponseFormat = format }
}

func WithHTTPClient(client *http.Client) SourceOptionHTTP {
	return func(opts *HTTPSourceOptions) { opts.Client = client }
}

// HTTPSource implements gospectra.PointSource for measurement data served
// over HTTP. The response body is decoded by a CSV or JSON source; reads
// delegate to it.
type HTTPSource struct {
	url      string
	opts     HTTPSourceOptions
	delegate gospectra.PointSource
}

// NewHTTPSource fetches the URL and prepares a point source over the
// response body. The request happens during construction; Read never blocks
// on the network afterwards.
func NewHTTPSource(ctx context.Context, url string, options ...SourceOptionHTTP) (*HTTPSource, error) {
	opts := HTTPSourceOptions{
		Method:        http.MethodGet,
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}

	source := &HTTPSource{url: url, opts: opts}

	body, contentType, err := source.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}

	delegate, err := source.decodeBody(body, contentType)
	if err != nil {
		body.Close()
		return nil, err
	}
	source.delegate = delegate

	return source, nil
}

// Read implements the PointSource interface.
func (h *HTTPSource) Read(ctx context.Context) (gospectra.Record, error) {
	return h.delegate.Read(ctx)
}

// Headers implements the PointSource interface.
func (h *HTTPSource) Headers() []string {
	return h.delegate.Headers()
}

// Format implements the PointSource interface.
func (h *HTTPSource) Format() string {
	return "http+" + h.delegate.Format()
}

// Close implements the PointSource interface.
func (h *HTTPSource) Close() error {
	return h.delegate.Close()
}

// fetchWithRetry performs the request, retrying transient failures.
func (h *HTTPSource) fetchWithRetry(ctx context.Context) (io.ReadCloser, string, error) {
	var lastErr error

	for attempt := 0; attempt <= h.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, "", &HTTPSourceError{Op: "request", Err: ctx.Err()}
			case <-time.After(h.opts.RetryDelay):
			}
		}

		body, contentType, err := h.fetch(ctx)
		if err == nil {
			return body, contentType, nil
		}
		lastErr = err
	}

	return nil, "", lastErr
}

func (h *HTTPSource) fetch(ctx context.Context) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, h.opts.Method, h.url, nil)
	if err != nil {
		return nil, "", &HTTPSourceError{Op: "build_request", Err: err}
	}

	for k, v := range h.opts.Headers {
		req.Header.Set(k, v)
	}
	if auth := h.opts.Auth; auth != nil {
		switch {
		case auth.BearerToken != "":
			req.Header.Set("Authorization", "Bearer "+auth.BearerToken)
		case auth.Username != "":
			req.SetBasicAuth(auth.Username, auth.Password)
		case auth.APIKeyName != "":
			req.Header.Set(auth.APIKeyName, auth.APIKeyValue)
		}
	}

	resp, err := h.opts.Client.Do(req)
	if err != nil {
		return nil, "", &HTTPSourceError{Op: "request", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, "", &HTTPSourceError{Op: "status", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// decodeBody picks the decoding source from the configured format or the
// response Content-Type.
func (h *HTTPSource) decodeBody(body io.ReadCloser, contentType string) (gospectra.PointSource, error) {
	format := h.opts.ResponseFormat
	if format == "" {
		switch {
		case strings.Contains(contentType, "csv"):
			format = "csv"
		case strings.Contains(contentType, "tab-separated"):
			format = "tsv"
		default:
			format = "json"
		}
	}

	switch format {
	case "csv":
		return NewCSVSource(body)
	case "tsv":
		return NewCSVSource(body, WithCSVComma('\t'))
	case "json", "jsonl":
		return NewJSONSource(body)
	default:
		return nil, &HTTPSourceError{Op: "decode", Err: fmt.Errorf("unsupported response format %q", format)}
	}
}
