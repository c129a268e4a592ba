// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"printfolio/internal/models"
)

// DefaultPopularTagLimit caps the popular tag listing.
const DefaultPopularTagLimit = 20

// TagStore handles tag database operations.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore with the given database connection.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// Popular returns the most used tags across published items, ordered by
// usage count descending with name as the tie-break. Tags attached only
// to drafts are excluded. A limit below one falls back to the default.
func (s *TagStore) Popular(limit int) ([]models.Tag, error) {
	if limit < 1 {
		limit = DefaultPopularTagLimit
	}

	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug, COUNT(DISTINCT pit.item_id) AS usage_count
		FROM tags t
		JOIN portfolio_item_tags pit ON pit.tag_id = t.id
		JOIN portfolio_items p ON p.id = pit.item_id AND p.is_published
		GROUP BY t.id, t.name, t.slug
		ORDER BY usage_count DESC, t.name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.UsageCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
