// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// DefaultSignedURLExpiry is how long signed URLs stay valid when no
// expiry is configured.
const DefaultSignedURLExpiry = time.Hour

// Options configures a Store.
type Options struct {
	// PublicBucket serves URLs as BaseURL + name with no backend call;
	// when false, URL requests a time-limited signed URL instead.
	PublicBucket bool
	// BaseURL overrides the bucket's own public base URL.
	BaseURL string
	// SignedURLExpiry defaults to DefaultSignedURLExpiry when zero.
	SignedURLExpiry time.Duration
}

// Store adapts a Bucket to a generic file-storage contract: save, open,
// delete, exists, url, size, listdir, and modification times.
type Store struct {
	bucket  Bucket
	baseURL string
	public  bool
	expiry  time.Duration

	// now is the fallback clock for missing backend timestamps.
	now func() time.Time
}

// New creates a Store over the given bucket backend.
func New(bucket Bucket, opts Options) *Store {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = bucket.PublicBaseURL()
	}
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	expiry := opts.SignedURLExpiry
	if expiry == 0 {
		expiry = DefaultSignedURLExpiry
	}

	return &Store{
		bucket:  bucket,
		baseURL: baseURL,
		public:  opts.PublicBucket,
		expiry:  expiry,
		now:     time.Now,
	}
}

// NormalizeName collapses redundant path segments and strips leading
// slashes, so "a//b/../c.png" and "/a/c.png" address the same object.
func NormalizeName(name string) string {
	cleaned := path.Clean(name)
	cleaned = strings.TrimLeft(cleaned, "/")
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// contentTypeFor guesses a MIME type from the file extension, falling
// back to application/octet-stream.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Save uploads the content under the normalised name, overwriting any
// existing object, and returns the stored name. Fails with *WriteError.
func (s *Store) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	name = NormalizeName(name)

	data, err := io.ReadAll(content)
	if err != nil {
		return "", &WriteError{Name: name, Err: fmt.Errorf("read content: %w", err)}
	}

	if err := s.bucket.Upload(ctx, name, data, contentTypeFor(name)); err != nil {
		return "", &WriteError{Name: name, Err: err}
	}
	return name, nil
}

// objectShapes is the ordered list of payload fields a backend may fill
// on download. The first non-nil field wins.
var objectShapes = []func(*Object) []byte{
	func(o *Object) []byte { return o.Body },
	func(o *Object) []byte { return o.Data },
	func(o *Object) []byte { return o.Content },
}

// Open downloads the full object. Any failure, including transport
// errors and unrecognised response shapes, surfaces as *NotFoundError.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name = NormalizeName(name)

	obj, err := s.bucket.Download(ctx, name)
	if err != nil {
		return nil, &NotFoundError{Name: name, Err: err}
	}

	for _, shape := range objectShapes {
		if data := shape(obj); data != nil {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	return nil, &NotFoundError{Name: name, Err: errors.New("unrecognised download response shape")}
}

// Delete removes the object. Removal of an absent object is not an
// error, but a structured per-item error from the backend surfaces as
// *WriteError carrying the backend's message.
func (s *Store) Delete(ctx context.Context, name string) error {
	name = NormalizeName(name)

	results, err := s.bucket.Remove(ctx, []string{name})
	if err != nil {
		return &WriteError{Name: name, Err: err}
	}
	for _, res := range results {
		if res.Message != "" {
			return &WriteError{Name: name, Err: errors.New(res.Message)}
		}
	}
	return nil
}

// metadata looks up an object's listing entry by listing its parent
// directory. Any listing failure yields nil, the same as absence, so
// transient faults surface as false negatives in Exists, Size, and the
// time accessors.
func (s *Store) metadata(ctx context.Context, name string) *ObjectInfo {
	name = NormalizeName(name)

	dir, base := "", name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		dir, base = name[:i], name[i+1:]
	}

	entries, err := s.bucket.List(ctx, dir)
	if err != nil {
		return nil
	}
	for i := range entries {
		if entries[i].Name == base {
			return &entries[i]
		}
	}
	return nil
}

// Exists reports whether the object appears in its parent listing.
// Listing failures read as false.
func (s *Store) Exists(ctx context.Context, name string) bool {
	return s.metadata(ctx, name) != nil
}

// Size returns the object's size from listing metadata.
func (s *Store) Size(ctx context.Context, name string) (int64, error) {
	info := s.metadata(ctx, name)
	if info == nil {
		return 0, &NotFoundError{Name: NormalizeName(name)}
	}
	return info.Size, nil
}

// signedURLShapes is the ordered list of extractors tried against a
// backend's signing response.
var signedURLShapes = []func(map[string]json.RawMessage) (string, bool){
	func(m map[string]json.RawMessage) (string, bool) { return stringField(m, "signedURL") },
	func(m map[string]json.RawMessage) (string, bool) {
		var nested map[string]json.RawMessage
		if raw, ok := m["data"]; ok && json.Unmarshal(raw, &nested) == nil {
			return stringField(nested, "signedURL")
		}
		return "", false
	},
	func(m map[string]json.RawMessage) (string, bool) { return stringField(m, "url") },
}

func stringField(m map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// URL resolves a retrieval URL for the object. Public buckets get a
// direct base-URL concatenation with no backend call; private buckets
// get a time-limited signed URL. Fails with *URLError.
func (s *Store) URL(ctx context.Context, name string) (string, error) {
	name = NormalizeName(name)

	if s.public {
		return s.baseURL + name, nil
	}

	raw, err := s.bucket.SignURL(ctx, name, s.expiry)
	if err != nil {
		return "", &URLError{Name: name, Err: err}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &URLError{Name: name, Err: fmt.Errorf("decode signing response: %w", err)}
	}
	for _, shape := range signedURLShapes {
		if url, ok := shape(payload); ok {
			return url, nil
		}
	}
	return "", &URLError{Name: name, Err: fmt.Errorf("unrecognised signing response: %s", raw)}
}

// ListDir lists one level of a prefix. Entries containing a further path
// separator are bucketed as subdirectory names (deduplicated, order
// unspecified); the rest are leaf filenames. Listing failures yield
// empty results.
func (s *Store) ListDir(ctx context.Context, dir string) (directories, filenames []string, err error) {
	dir = NormalizeName(dir)
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	entries, listErr := s.bucket.List(ctx, dir)
	if listErr != nil {
		return nil, nil, nil
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		rel := NormalizeName(entry.Name)
		rel = strings.TrimPrefix(rel, dir)
		if slash := strings.Index(rel, "/"); slash >= 0 {
			sub := rel[:slash]
			if !seen[sub] {
				seen[sub] = true
				directories = append(directories, sub)
			}
		} else {
			filenames = append(filenames, rel)
		}
	}
	return directories, filenames, nil
}

// ModifiedTime returns the backend's modification timestamp. When the
// backend reports none, the current time is returned instead of an
// error.
func (s *Store) ModifiedTime(ctx context.Context, name string) (time.Time, error) {
	info := s.metadata(ctx, name)
	if info == nil {
		return time.Time{}, &NotFoundError{Name: NormalizeName(name)}
	}
	if info.UpdatedAt == "" {
		return s.now(), nil
	}

	t, err := time.Parse(time.RFC3339, info.UpdatedAt)
	if err != nil {
		return s.now(), nil
	}
	return t.UTC(), nil
}

// AccessedTime aliases ModifiedTime; the backend does not track access.
func (s *Store) AccessedTime(ctx context.Context, name string) (time.Time, error) {
	return s.ModifiedTime(ctx, name)
}

// CreatedTime aliases ModifiedTime; the backend does not track creation.
func (s *Store) CreatedTime(ctx context.Context, name string) (time.Time, error) {
	return s.ModifiedTime(ctx, name)
}
