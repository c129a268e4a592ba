// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

// Package gallery manages portfolio items together with their images in
// remote object storage. Uploads land under dated keys, a JPEG thumbnail
// is generated alongside each image, and files left orphaned by edits or
// deletes are cleaned up after the database change has committed.
package gallery

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"printfolio/internal/models"
)

const (
	// maxUploadSize is the maximum allowed image upload size (20 MB).
	maxUploadSize = 20 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	maxImagePixels = 100_000_000
)

// allowedImageTypes defines MIME types accepted for portfolio images.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// thumbableTypes are image types that support thumbnail generation.
// GIF is excluded to preserve animation.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ObjectStore is the slice of the storage adapter the gallery needs.
type ObjectStore interface {
	Save(ctx context.Context, name string, content io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// ItemStore is the slice of the portfolio item store the gallery needs.
type ItemStore interface {
	Create(item *models.PortfolioItem) error
	Update(item *models.PortfolioItem) error
	Delete(id uuid.UUID) ([]string, error)
	FindByID(id uuid.UUID) (*models.PortfolioItem, error)
}

// Service coordinates item rows and their stored images.
type Service struct {
	items   ItemStore
	objects ObjectStore

	now   func() time.Time
	newID func() uuid.UUID
}

// New creates a gallery Service over the given stores.
func New(items ItemStore, objects ObjectStore) *Service {
	return &Service{
		items:   items,
		objects: objects,
		now:     time.Now,
		newID:   uuid.New,
	}
}

// upload stores the image and its thumbnail, returning the storage keys.
func (s *Service) upload(ctx context.Context, filename string, content io.Reader) (imageKey string, thumbKey *string, err error) {
	data, err := io.ReadAll(io.LimitReader(content, maxUploadSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return "", nil, fmt.Errorf("upload exceeds %d bytes", maxUploadSize)
	}

	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	contentType := http.DetectContentType(sniff)
	if !allowedImageTypes[contentType] {
		return "", nil, fmt.Errorf("image type %q is not allowed", contentType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = extensionFromType(contentType)
	}

	now := s.now()
	fileID := s.newID().String()
	imageKey = fmt.Sprintf("portfolio/%d/%02d/%s%s", now.Year(), now.Month(), fileID, ext)

	if _, err := s.objects.Save(ctx, imageKey, bytes.NewReader(data)); err != nil {
		return "", nil, fmt.Errorf("store image: %w", err)
	}

	// Thumbnail failures are not fatal: the full image is already stored
	// and the gallery falls back to it.
	if thumbableTypes[contentType] {
		thumbData, err := generateThumbnail(bytes.NewReader(data), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", imageKey)
		} else if thumbData != nil {
			tk := fmt.Sprintf("portfolio/%d/%02d/%s_thumb.jpg", now.Year(), now.Month(), fileID)
			if _, err := s.objects.Save(ctx, tk, bytes.NewReader(thumbData)); err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", tk)
			} else {
				thumbKey = &tk
			}
		}
	}

	return imageKey, thumbKey, nil
}

// CreateItem stores the image (when provided) and inserts the item. If the
// insert fails the uploaded objects are removed so storage holds no
// orphans.
func (s *Service) CreateItem(ctx context.Context, item *models.PortfolioItem, filename string, content io.Reader) error {
	var uploaded []string
	if content != nil {
		imageKey, thumbKey, err := s.upload(ctx, filename, content)
		if err != nil {
			return err
		}
		item.ImageKey = imageKey
		item.ThumbKey = thumbKey
		uploaded = append(uploaded, imageKey)
		if thumbKey != nil {
			uploaded = append(uploaded, *thumbKey)
		}
	}

	if err := s.items.Create(item); err != nil {
		s.cleanup(ctx, uploaded)
		return err
	}
	return nil
}

// ReplaceImage uploads a new image for an existing item and saves the row.
// The previous objects are deleted only after the row update succeeds, so
// a failed save never strands the item pointing at missing files.
func (s *Service) ReplaceImage(ctx context.Context, item *models.PortfolioItem, filename string, content io.Reader) error {
	oldKeys := itemKeys(item)

	imageKey, thumbKey, err := s.upload(ctx, filename, content)
	if err != nil {
		return err
	}
	item.ImageKey = imageKey
	item.ThumbKey = thumbKey

	if err := s.items.Update(item); err != nil {
		newKeys := []string{imageKey}
		if thumbKey != nil {
			newKeys = append(newKeys, *thumbKey)
		}
		s.cleanup(ctx, newKeys)
		return err
	}

	s.cleanup(ctx, oldKeys)
	return nil
}

// RemoveItem deletes the item row, then its stored images. Storage errors
// are logged and swallowed: the row is gone and a retry cannot bring it
// back, so a stale object is the lesser problem.
func (s *Service) RemoveItem(ctx context.Context, id uuid.UUID) error {
	keys, err := s.items.Delete(id)
	if err != nil {
		return err
	}
	s.cleanup(ctx, keys)
	return nil
}

func (s *Service) cleanup(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil {
			slog.Warn("storage cleanup failed", "error", err, "key", key)
		}
	}
}

func itemKeys(item *models.PortfolioItem) []string {
	var keys []string
	if item.ImageKey != "" {
		keys = append(keys, item.ImageKey)
	}
	if item.ThumbKey != nil && *item.ThumbKey != "" {
		keys = append(keys, *item.ThumbKey)
	}
	return keys
}

// generateThumbnail resizes an image to at most maxWidth, preserving the
// aspect ratio and encoding as JPEG. Returns nil bytes when the image is
// already small enough.
func generateThumbnail(src io.ReadSeeker, maxWidth int) ([]byte, error) {
	// Decode config first to check dimensions without full decode.
	imgCfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Check for image bombs.
	if int64(imgCfg.Width)*int64(imgCfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", imgCfg.Width, imgCfg.Height, maxImagePixels)
	}

	// Skip thumbnail if image is already small enough.
	if imgCfg.Width <= maxWidth {
		return nil, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Calculate thumbnail dimensions preserving aspect ratio.
	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newWidth := maxWidth
	newHeight := int(float64(bounds.Dy()) * ratio)

	// Resize using CatmullRom (high quality).
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// extensionFromType returns a file extension for known MIME types.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
