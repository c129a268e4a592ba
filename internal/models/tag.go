// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// Tag is a free-form label shared across portfolio items. Names are
// unique case-insensitively.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`

	// UsageCount is a derived property: the number of distinct published
	// items carrying this tag. Populated by TagStore.Popular, zero elsewhere.
	UsageCount int `json:"count"`
}
