package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"printfolio/internal/slug"
)

// Seed populates the database with initial development data.
// It creates a handful of published portfolio items with tags so the
// gallery has something to show out of the box.
func Seed(db *sql.DB) error {
	// Check if any items exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM portfolio_items").Scan(&count); err != nil {
		return fmt.Errorf("seed check items: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	samples := []struct {
		title       string
		description string
		tags        []string
	}{
		{"Conference roll-up banner", "Large format roll-up banner for a regional tech conference.", []string{"Banners", "Large Format"}},
		{"Coffee shop loyalty cards", "Double sided loyalty cards on 350gsm matte stock.", []string{"Cards", "Branding"}},
		{"Product packaging sleeve", "Custom die-cut sleeve for an artisan soap line.", []string{"Packaging"}},
		{"Campaign t-shirt print", "Two colour screen print for an election campaign.", []string{"Merchandise", "Campaign"}},
		{"Clinic appointment books", "Carbonless duplicate appointment books for a dental clinic.", []string{"Stationery"}},
		{"Trifold brochure", "Full colour trifold brochure with spot UV cover.", []string{"Brochures", "Branding"}},
	}

	for _, s := range samples {
		var itemID string
		err := db.QueryRow(`
			INSERT INTO portfolio_items (title, slug, description, is_published)
			VALUES ($1, $2, $3, TRUE)
			RETURNING id
		`, s.title, slug.Generate(s.title), s.description).Scan(&itemID)
		if err != nil {
			return fmt.Errorf("seed insert item %q: %w", s.title, err)
		}

		for _, name := range s.tags {
			var tagID string
			err := db.QueryRow(`
				INSERT INTO tags (name, slug)
				VALUES ($1, $2)
				ON CONFLICT (LOWER(name)) DO UPDATE SET name = tags.name
				RETURNING id
			`, name, slug.Generate(name)).Scan(&tagID)
			if err != nil {
				return fmt.Errorf("seed upsert tag %q: %w", name, err)
			}

			_, err = db.Exec(`
				INSERT INTO portfolio_item_tags (item_id, tag_id)
				VALUES ($1, $2)
				ON CONFLICT (item_id, tag_id) DO NOTHING
			`, itemID, tagID)
			if err != nil {
				return fmt.Errorf("seed link tag %q: %w", name, err)
			}
		}
	}

	slog.Info("database seeded with sample portfolio items", "count", len(samples))
	return nil
}
