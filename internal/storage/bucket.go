// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

// Package storage provides a uniform file-storage contract over remote
// bucket-style object stores. The Store adapter normalises paths, infers
// content types, and absorbs backend response-shape variability; Bucket
// implementations handle the wire protocol (an HTTP object API or S3).
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Object is a downloaded object. Backends differ in how they wrap the
// payload: direct responses fill Body, envelope responses fill Data or
// Content. Store.Open tries the fields in that order.
type Object struct {
	Body    []byte
	Data    []byte
	Content []byte
}

// ObjectInfo describes one entry in a bucket listing.
type ObjectInfo struct {
	// Name is relative to the listed prefix.
	Name string
	Size int64
	// UpdatedAt is the backend's ISO-8601 modification timestamp,
	// empty when the backend does not report one.
	UpdatedAt string
}

// RemoveResult is the per-object outcome of a batch removal. Message is
// non-empty when the backend reports a structured per-item error.
type RemoveResult struct {
	Name    string
	Message string
}

// Bucket is the wire-level contract a storage backend must satisfy.
// SignURL returns the backend's raw response payload; the Store extracts
// the URL from it with ordered shape matchers.
type Bucket interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	Download(ctx context.Context, name string) (*Object, error)
	Remove(ctx context.Context, names []string) ([]RemoveResult, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	SignURL(ctx context.Context, name string, expiresIn time.Duration) (json.RawMessage, error)

	// PublicBaseURL is the direct retrieval base for a public bucket,
	// with a trailing slash.
	PublicBaseURL() string
}
