// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"printfolio/internal/models"
	"printfolio/internal/slug"
)

const pgUniqueViolation = "23505"

// PortfolioItemStore handles all portfolio item database operations.
type PortfolioItemStore struct {
	db *sql.DB
}

// NewPortfolioItemStore creates a new PortfolioItemStore with the given database connection.
func NewPortfolioItemStore(db *sql.DB) *PortfolioItemStore {
	return &PortfolioItemStore{db: db}
}

const itemColumns = `p.id, p.title, p.slug, p.image_key, p.thumb_key,
	p.description, p.is_published, p.created_at, p.updated_at`

func scanItem(row interface{ Scan(...any) error }, item *models.PortfolioItem) error {
	return row.Scan(
		&item.ID, &item.Title, &item.Slug, &item.ImageKey, &item.ThumbKey,
		&item.Description, &item.IsPublished, &item.CreatedAt, &item.UpdatedAt,
	)
}

// Create inserts a new portfolio item. The slug is derived from the title
// and deduplicated with a numeric suffix. A retry handles the race where
// two writers pick the same slug between the check and the insert.
func (s *PortfolioItemStore) Create(item *models.PortfolioItem) error {
	if utf8.RuneCountInString(item.Title) > models.MaxTitleLen {
		return fmt.Errorf("create item: title exceeds %d characters", models.MaxTitleLen)
	}
	for attempt := 0; attempt < 3; attempt++ {
		unique, err := slug.Unique(slug.Generate(item.Title), func(candidate string) (bool, error) {
			var exists bool
			err := s.db.QueryRow(
				"SELECT EXISTS (SELECT 1 FROM portfolio_items WHERE slug = $1)", candidate,
			).Scan(&exists)
			return exists, err
		})
		if err != nil {
			return fmt.Errorf("create item slug: %w", err)
		}

		err = s.db.QueryRow(`
			INSERT INTO portfolio_items (title, slug, image_key, thumb_key, description, is_published)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at
		`, item.Title, unique, item.ImageKey, item.ThumbKey, item.Description, item.IsPublished).
			Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
		if err == nil {
			item.Slug = unique
			if len(item.Tags) > 0 {
				return s.SetTags(item.ID, item.Tags)
			}
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			continue
		}
		return fmt.Errorf("create item: %w", err)
	}
	return fmt.Errorf("create item: could not allocate unique slug for %q", item.Title)
}

// ListPublished returns the requested page of published items matching the
// filter, newest first, with their tags loaded.
func (s *PortfolioItemStore) ListPublished(f Filter, page, perPage int) ([]models.PortfolioItem, Page, error) {
	where := []string{"p.is_published"}
	clauses, args := f.predicates(1)
	where = append(where, clauses...)
	cond := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM portfolio_items p WHERE "+cond, args...,
	).Scan(&total)
	if err != nil {
		return nil, Page{}, fmt.Errorf("count published items: %w", err)
	}

	offset, pg := Paginate(total, page, perPage)

	query := fmt.Sprintf(`
		SELECT %s FROM portfolio_items p
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, itemColumns, cond, len(args)+1, len(args)+2)
	rows, err := s.db.Query(query, append(args, pg.PerPage, offset)...)
	if err != nil {
		return nil, Page{}, fmt.Errorf("list published items: %w", err)
	}
	defer rows.Close()

	var items []models.PortfolioItem
	for rows.Next() {
		var item models.PortfolioItem
		if err := scanItem(rows, &item); err != nil {
			return nil, Page{}, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, Page{}, err
	}

	if err := s.loadTags(items); err != nil {
		return nil, Page{}, err
	}
	return items, pg, nil
}

// List returns all items regardless of publication state, newest first.
func (s *PortfolioItemStore) List() ([]models.PortfolioItem, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s FROM portfolio_items p
		ORDER BY p.created_at DESC
	`, itemColumns))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.PortfolioItem
	for rows.Next() {
		var item models.PortfolioItem
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTags(items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID retrieves an item by its UUID. Returns nil if not found.
func (s *PortfolioItemStore) FindByID(id uuid.UUID) (*models.PortfolioItem, error) {
	item := &models.PortfolioItem{}
	err := scanItem(s.db.QueryRow(fmt.Sprintf(
		"SELECT %s FROM portfolio_items p WHERE p.id = $1", itemColumns,
	), id), item)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by id: %w", err)
	}

	single := []models.PortfolioItem{*item}
	if err := s.loadTags(single); err != nil {
		return nil, err
	}
	*item = single[0]
	return item, nil
}

// FindBySlug retrieves a published item by its slug. Returns nil if not found.
func (s *PortfolioItemStore) FindBySlug(itemSlug string) (*models.PortfolioItem, error) {
	item := &models.PortfolioItem{}
	err := scanItem(s.db.QueryRow(fmt.Sprintf(
		"SELECT %s FROM portfolio_items p WHERE p.slug = $1 AND p.is_published", itemColumns,
	), itemSlug), item)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by slug: %w", err)
	}

	single := []models.PortfolioItem{*item}
	if err := s.loadTags(single); err != nil {
		return nil, err
	}
	*item = single[0]
	return item, nil
}

// Update saves an existing item's editable fields. The slug is kept stable
// so published URLs do not break on edits. Tags are replaced with the
// item's current tag list.
func (s *PortfolioItemStore) Update(item *models.PortfolioItem) error {
	if utf8.RuneCountInString(item.Title) > models.MaxTitleLen {
		return fmt.Errorf("update item: title exceeds %d characters", models.MaxTitleLen)
	}
	err := s.db.QueryRow(`
		UPDATE portfolio_items
		SET title = $1, image_key = $2, thumb_key = $3, description = $4,
		    is_published = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, item.Title, item.ImageKey, item.ThumbKey, item.Description, item.IsPublished, item.ID).
		Scan(&item.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("update item: %s not found", item.ID)
	}
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return s.SetTags(item.ID, item.Tags)
}

// Delete removes an item and returns the storage keys of its images so
// the caller can clean up the object store after the row is gone.
func (s *PortfolioItemStore) Delete(id uuid.UUID) ([]string, error) {
	var (
		imageKey string
		thumbKey *string
	)
	err := s.db.QueryRow(`
		DELETE FROM portfolio_items WHERE id = $1
		RETURNING image_key, thumb_key
	`, id).Scan(&imageKey, &thumbKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}

	var keys []string
	if imageKey != "" {
		keys = append(keys, imageKey)
	}
	if thumbKey != nil && *thumbKey != "" {
		keys = append(keys, *thumbKey)
	}
	return keys, nil
}

// SetTags replaces an item's tags with the given names, creating missing
// tags on the fly. Names are matched case-insensitively and the order of
// the list is preserved.
func (s *PortfolioItemStore) SetTags(itemID uuid.UUID, names []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set tags begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM portfolio_item_tags WHERE item_id = $1", itemID); err != nil {
		return fmt.Errorf("set tags clear: %w", err)
	}

	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		var tagID uuid.UUID
		err := tx.QueryRow(`
			INSERT INTO tags (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (LOWER(name)) DO UPDATE SET name = tags.name
			RETURNING id
		`, name, slug.Generate(name)).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("set tags upsert %q: %w", name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO portfolio_item_tags (item_id, tag_id) VALUES ($1, $2)",
			itemID, tagID,
		); err != nil {
			return fmt.Errorf("set tags link %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// loadTags populates Tags for every item in the slice with a single query,
// preserving the order tags were attached in.
func (s *PortfolioItemStore) loadTags(items []models.PortfolioItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i := range items {
		ids[i] = items[i].ID.String()
		index[items[i].ID] = i
	}

	rows, err := s.db.Query(`
		SELECT pit.item_id, t.name
		FROM portfolio_item_tags pit
		JOIN tags t ON t.id = pit.tag_id
		WHERE pit.item_id = ANY($1::uuid[])
		ORDER BY pit.id
	`, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID uuid.UUID
			name   string
		)
		if err := rows.Scan(&itemID, &name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].Tags = append(items[i].Tags, name)
		}
	}
	return rows.Err()
}
