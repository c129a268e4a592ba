// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPBucket speaks a bucket-style HTTP object API: objects live under
// /object/{bucket}/{name}, listings are POSTed to /object/list/{bucket},
// and signed URLs come from /object/sign/{bucket}/{name}. Authentication
// is a bearer key.
type HTTPBucket struct {
	endpoint string
	apiKey   string
	bucket   string
	client   *http.Client
}

// NewHTTPBucket creates a bucket client for the given API endpoint.
// The timeout bounds every request; zero means 10 seconds.
func NewHTTPBucket(endpoint, apiKey, bucket string, timeout time.Duration) *HTTPBucket {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPBucket{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		bucket:   bucket,
		client:   &http.Client{Timeout: timeout},
	}
}

// PublicBaseURL returns the direct retrieval base for public objects.
func (b *HTTPBucket) PublicBaseURL() string {
	return b.endpoint + "/object/public/" + b.bucket + "/"
}

// objectURL builds the object endpoint for a name, escaping each path segment.
func (b *HTTPBucket) objectURL(prefix, name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return b.endpoint + prefix + b.bucket + "/" + strings.Join(segments, "/")
}

// do executes a request with auth headers and returns the response body.
// Non-2xx statuses are errors carrying the body text.
func (b *HTTPBucket) do(req *http.Request) ([]byte, string, error) {
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("bucket http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("bucket read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("bucket API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// Upload stores an object, overwriting any existing one (x-upsert).
func (b *HTTPBucket) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.objectURL("/object/", name), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("bucket upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	if _, _, err := b.do(req); err != nil {
		return fmt.Errorf("upload %q: %w", name, err)
	}
	return nil
}

// downloadEnvelope is the JSON wrapper some API deployments put around
// object bytes, base64-encoded under either "data" or "content".
type downloadEnvelope struct {
	Data    string `json:"data"`
	Content string `json:"content"`
}

// Download retrieves an object. Direct responses fill Object.Body; JSON
// envelope responses fill Data or Content.
func (b *HTTPBucket) Download(ctx context.Context, name string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.objectURL("/object/", name), nil)
	if err != nil {
		return nil, fmt.Errorf("bucket download request: %w", err)
	}

	body, contentType, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("download %q: %w", name, err)
	}

	if strings.Contains(contentType, "application/json") {
		var env downloadEnvelope
		if err := json.Unmarshal(body, &env); err == nil && (env.Data != "" || env.Content != "") {
			obj := &Object{}
			if env.Data != "" {
				if obj.Data, err = base64.StdEncoding.DecodeString(env.Data); err != nil {
					return nil, fmt.Errorf("download %q: decode data envelope: %w", name, err)
				}
				return obj, nil
			}
			if obj.Content, err = base64.StdEncoding.DecodeString(env.Content); err != nil {
				return nil, fmt.Errorf("download %q: decode content envelope: %w", name, err)
			}
			return obj, nil
		}
	}

	return &Object{Body: body}, nil
}

// removeRequest is the batch removal payload.
type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

// removeResponseItem is one entry of the backend's removal response.
// Error and Message are alternative spellings of a per-item failure.
type removeResponseItem struct {
	Name    string `json:"name"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Remove deletes the named objects in one call.
func (b *HTTPBucket) Remove(ctx context.Context, names []string) ([]RemoveResult, error) {
	payload, err := json.Marshal(removeRequest{Prefixes: names})
	if err != nil {
		return nil, fmt.Errorf("bucket remove marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		b.endpoint+"/object/"+b.bucket, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bucket remove request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, _, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}

	var items []removeResponseItem
	if err := json.Unmarshal(body, &items); err != nil {
		// Some deployments return an empty or non-array body on success.
		return nil, nil
	}

	results := make([]RemoveResult, 0, len(items))
	for _, item := range items {
		msg := item.Error
		if msg == "" {
			msg = item.Message
		}
		results = append(results, RemoveResult{Name: item.Name, Message: msg})
	}
	return results, nil
}

// listRequest is the listing payload for one prefix level.
type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
}

// listResponseItem is one entry of the backend's listing response.
type listResponseItem struct {
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
	Metadata  struct {
		Size int64 `json:"size"`
	} `json:"metadata"`
	Size int64 `json:"size"`
}

// List returns the entries under a prefix, names relative to it.
func (b *HTTPBucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	payload, err := json.Marshal(listRequest{Prefix: prefix, Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("bucket list marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.endpoint+"/object/list/"+b.bucket, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bucket list request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, _, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	var items []listResponseItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("list %q: decode response: %w", prefix, err)
	}

	infos := make([]ObjectInfo, 0, len(items))
	for _, item := range items {
		size := item.Metadata.Size
		if size == 0 {
			size = item.Size
		}
		infos = append(infos, ObjectInfo{Name: item.Name, Size: size, UpdatedAt: item.UpdatedAt})
	}
	return infos, nil
}

// signRequest is the signed-URL payload.
type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

// SignURL requests a time-limited retrieval URL and returns the raw
// response payload for the caller's shape matchers.
func (b *HTTPBucket) SignURL(ctx context.Context, name string, expiresIn time.Duration) (json.RawMessage, error) {
	payload, err := json.Marshal(signRequest{ExpiresIn: int(expiresIn.Seconds())})
	if err != nil {
		return nil, fmt.Errorf("bucket sign marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.objectURL("/object/sign/", name), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bucket sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, _, err := b.do(req)
	if err != nil {
		return nil, fmt.Errorf("sign %q: %w", name, err)
	}
	return json.RawMessage(body), nil
}
