// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Bucket implements Bucket against S3-compatible object storage using
// path-style addressing (required by CEPH/Hetzner/MinIO deployments).
type S3Bucket struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
	endpoint  string
}

// NewS3Bucket creates an S3-backed bucket client with static credentials.
func NewS3Bucket(endpoint, region, accessKey, secretKey, bucket string) *S3Bucket {
	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3Bucket{
		s3:        client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		endpoint:  endpoint,
	}
}

// PublicBaseURL returns the path-style base URL for public objects.
func (b *S3Bucket) PublicBaseURL() string {
	return b.endpoint + "/" + b.bucket + "/"
}

// Upload stores an object with public-read ACL so public buckets can
// serve it directly.
func (b *S3Bucket) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := b.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", b.bucket, name, err)
	}
	return nil
}

// Download retrieves an object's full contents into Object.Body.
func (b *S3Bucket) Download(ctx context.Context, name string) (*Object, error) {
	output, err := b.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download %s/%s: %w", b.bucket, name, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s/%s: %w", b.bucket, name, err)
	}
	return &Object{Body: data}, nil
}

// Remove deletes the named objects in one batch call, reporting per-key
// failures in the results.
func (b *S3Bucket) Remove(ctx context.Context, names []string) ([]RemoveResult, error) {
	objects := make([]s3types.ObjectIdentifier, len(names))
	for i, name := range names {
		objects[i] = s3types.ObjectIdentifier{Key: aws.String(name)}
	}

	output, err := b.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(b.bucket),
		Delete: &s3types.Delete{Objects: objects},
	})
	if err != nil {
		return nil, fmt.Errorf("s3 delete %s: %w", b.bucket, err)
	}

	var results []RemoveResult
	for _, e := range output.Errors {
		results = append(results, RemoveResult{
			Name:    aws.ToString(e.Key),
			Message: aws.ToString(e.Message),
		})
	}
	return results, nil
}

// List returns one level of entries under a prefix, names relative to it.
func (b *S3Bucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var infos []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(b.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s/%s: %w", b.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if key == "" {
				continue
			}
			info := ObjectInfo{Name: key, Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				info.UpdatedAt = obj.LastModified.UTC().Format(time.RFC3339)
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// SignURL generates a presigned GET URL, wrapped in the common signing
// response payload.
func (b *S3Bucket) SignURL(ctx context.Context, name string, expiresIn time.Duration) (json.RawMessage, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return nil, fmt.Errorf("s3 presign %s/%s: %w", b.bucket, name, err)
	}

	payload, err := json.Marshal(map[string]string{"signedURL": req.URL})
	if err != nil {
		return nil, fmt.Errorf("s3 presign marshal: %w", err)
	}
	return payload, nil
}
