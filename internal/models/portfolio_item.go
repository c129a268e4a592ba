// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package models

import (
	"time"
	"unicode"

	"github.com/google/uuid"
)

// MaxTitleLen is the maximum length of a portfolio item title.
const MaxTitleLen = 200

// PortfolioItem represents a published-or-draft work sample. The image
// itself lives in remote object storage; ImageKey and ThumbKey are keys
// in the storage adapter's namespace.
type PortfolioItem struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	ImageKey    string    `json:"image_key"`
	ThumbKey    *string   `json:"thumb_key,omitempty"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Tags is populated by store methods, in membership order.
	Tags []string `json:"tags,omitempty"`
}

// DisplayTitle returns the title with its first alphabetic character
// upper-cased. A display rule only; the stored title is never mutated.
func (p *PortfolioItem) DisplayTitle() string {
	runes := []rune(p.Title)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(runes)
}
