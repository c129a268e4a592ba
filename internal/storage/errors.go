// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package storage

import "fmt"

// WriteError reports a failed save or delete against the remote bucket.
type WriteError struct {
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage: write %q: %v", e.Name, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// NotFoundError reports that an object could not be retrieved. The adapter
// does not distinguish a missing object from a transport failure at this
// layer; callers must treat both the same.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage: %q not found", e.Name)
	}
	return fmt.Sprintf("storage: %q not found: %v", e.Name, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// URLError reports a failure to resolve a retrieval URL for an object.
type URLError struct {
	Name string
	Err  error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("storage: url for %q: %v", e.Name, e.Err)
}

func (e *URLError) Unwrap() error { return e.Err }
