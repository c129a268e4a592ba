// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

package store

import (
	"strconv"
	"strings"
)

// Filter describes the gallery search criteria. Search matches title,
// description and tag names case-insensitively, including a variant with
// all whitespace stripped so "rollup" still finds "roll up". TagsAll
// requires every named tag on an item; TagsAny requires at least one.
type Filter struct {
	Search  string
	TagsAll []string
	TagsAny []string
}

// ParseTagList splits a comma separated tag string into trimmed,
// non-empty names.
func ParseTagList(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// stripSpaces removes all whitespace and lowercases, mirroring the
// whitespace-insensitive search variant.
func stripSpaces(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

const tagMatchExists = `EXISTS (
	SELECT 1 FROM portfolio_item_tags pit
	JOIN tags t ON t.id = pit.tag_id
	WHERE pit.item_id = p.id`

// predicates builds the WHERE fragments for the filter. Placeholders
// start at $argIdx so callers can prepend their own conditions. The
// fragments reference the portfolio_items alias "p".
func (f Filter) predicates(argIdx int) ([]string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		n := argIdx + len(args) - 1
		return "$" + strconv.Itoa(n)
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := next("%" + escapeLike(s) + "%")
		stripped := next("%" + escapeLike(stripSpaces(s)) + "%")
		clauses = append(clauses, `(
			p.title ILIKE `+pattern+`
			OR p.description ILIKE `+pattern+`
			OR REGEXP_REPLACE(LOWER(p.title), '\s', '', 'g') LIKE `+stripped+`
			OR REGEXP_REPLACE(LOWER(p.description), '\s', '', 'g') LIKE `+stripped+`
			OR `+tagMatchExists+` AND t.name ILIKE `+pattern+`)
		)`)
	}

	for _, name := range f.TagsAll {
		ph := next(strings.TrimSpace(name))
		clauses = append(clauses, tagMatchExists+` AND LOWER(t.name) = LOWER(`+ph+`))`)
	}

	if len(f.TagsAny) > 0 {
		lowered := make([]string, 0, len(f.TagsAny))
		for _, name := range f.TagsAny {
			lowered = append(lowered, strings.ToLower(strings.TrimSpace(name)))
		}
		ph := next(lowered)
		clauses = append(clauses, tagMatchExists+` AND LOWER(t.name) = ANY(`+ph+`))`)
	}

	return clauses, args
}
