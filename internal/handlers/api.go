// Copyright (c) 2026 Printfolio Contributors
// All rights reserved. See LICENSE for details.

// Package handlers implements the public JSON API: the portfolio gallery
// listing, the popular tag listing, and the contact form endpoint.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"printfolio/internal/cache"
	"printfolio/internal/contact"
	"printfolio/internal/middleware"
	"printfolio/internal/models"
	"printfolio/internal/store"
)

const (
	// defaultPerPage is the gallery page size when none is requested.
	defaultPerPage = 6

	// maxPerPage caps the page size a client can request.
	maxPerPage = 100
)

// ItemLister serves paginated published portfolio items.
type ItemLister interface {
	ListPublished(f store.Filter, page, perPage int) ([]models.PortfolioItem, store.Page, error)
}

// TagLister serves the popular tag listing.
type TagLister interface {
	Popular(limit int) ([]models.Tag, error)
}

// ContactSubmitter processes contact form submissions.
type ContactSubmitter interface {
	Submit(sub contact.Submission) error
}

// URLResolver turns storage keys into client-facing URLs.
type URLResolver interface {
	URL(ctx context.Context, name string) (string, error)
}

// API groups the public JSON endpoints.
type API struct {
	items     ItemLister
	tags      TagLister
	contact   ContactSubmitter
	urls      URLResolver
	respCache *cache.ResponseCache
	debug     bool
}

// NewAPI creates the public API handler group. urls may be nil when no
// object storage is configured; image fields render empty in that case.
func NewAPI(items ItemLister, tags TagLister, c ContactSubmitter, urls URLResolver, respCache *cache.ResponseCache, debug bool) *API {
	return &API{
		items:     items,
		tags:      tags,
		contact:   c,
		urls:      urls,
		respCache: respCache,
		debug:     debug,
	}
}

// writeJSON serializes the payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes the standard failure envelope. Internal detail is
// only exposed in debug mode.
func (a *API) writeError(w http.ResponseWriter, status int, message string, err error) {
	detail := "Internal server error"
	if a.debug && err != nil {
		detail = err.Error()
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
		"error":   detail,
	})
}

// parsePageParams reads page and per_page, falling back to defaults on
// anything unparseable and capping the page size.
func parsePageParams(r *http.Request) (page, perPage int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	perPage = defaultPerPage
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = v
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// parseFilter builds the store filter from query parameters. A comma
// separated "tags" value requires every tag; repeated "tags[]" values
// match any. The literal value "all" disables tag filtering.
func parseFilter(r *http.Request) store.Filter {
	q := r.URL.Query()
	f := store.Filter{Search: strings.TrimSpace(q.Get("search"))}

	// "all" anywhere in the list turns tag filtering off entirely.
	hasAll := func(names []string) bool {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), "all") {
				return true
			}
		}
		return false
	}

	if csv := q.Get("tags"); csv != "" {
		if names := store.ParseTagList(csv); !hasAll(names) {
			f.TagsAll = names
		}
	} else if any := q["tags[]"]; len(any) > 0 {
		if !hasAll(any) {
			f.TagsAny = any
		}
	}
	return f
}

// itemView is the wire shape of one gallery item.
type itemView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	FullImage   string   `json:"fullImage"`
	Tags        []string `json:"tags"`
	CreatedAt   *string  `json:"created_at"`
}

// serializeItem resolves image URLs and shapes the item for the client.
// The thumbnail falls back to the full image when no thumbnail exists.
func (a *API) serializeItem(ctx context.Context, item *models.PortfolioItem) itemView {
	v := itemView{
		ID:          item.ID.String(),
		Title:       item.DisplayTitle(),
		Slug:        item.Slug,
		Description: item.Description,
		Tags:        item.Tags,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if !item.CreatedAt.IsZero() {
		created := item.CreatedAt.Format(time.RFC3339)
		v.CreatedAt = &created
	}

	if a.urls == nil || item.ImageKey == "" {
		return v
	}

	full, err := a.urls.URL(ctx, item.ImageKey)
	if err != nil {
		slog.Warn("image url resolution failed", "key", item.ImageKey, "error", err)
	} else {
		v.FullImage = full
	}

	v.Thumbnail = v.FullImage
	if item.ThumbKey != nil && *item.ThumbKey != "" {
		thumb, err := a.urls.URL(ctx, *item.ThumbKey)
		if err != nil {
			slog.Warn("thumbnail url resolution failed", "key", *item.ThumbKey, "error", err)
		} else {
			v.Thumbnail = thumb
		}
	}
	return v
}

// Portfolio handles GET /api/portfolio.
func (a *API) Portfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := "portfolio:" + r.URL.RawQuery
	if payload, ok := a.respCache.Get(ctx, cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	f := parseFilter(r)
	page, perPage := parsePageParams(r)

	items, pg, err := a.items.ListPublished(f, page, perPage)
	if err != nil {
		slog.Error("portfolio listing failed", "error", err)
		a.writeError(w, http.StatusInternalServerError, "Failed to load portfolio items.", err)
		return
	}

	views := make([]itemView, 0, len(items))
	for i := range items {
		views = append(views, a.serializeItem(ctx, &items[i]))
	}

	tagFilters := f.TagsAll
	if len(tagFilters) == 0 {
		tagFilters = f.TagsAny
	}
	if tagFilters == nil {
		tagFilters = []string{}
	}

	payload, err := json.Marshal(map[string]any{
		"success": true,
		"items":   views,
		"pagination": map[string]any{
			"current_page": pg.Number,
			"total_pages":  pg.TotalPages,
			"total_items":  pg.TotalItems,
			"has_next":     pg.HasNext,
			"has_previous": pg.HasPrevious,
		},
		"filters": map[string]any{
			"search": f.Search,
			"tags":   tagFilters,
		},
	})
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, "Failed to load portfolio items.", err)
		return
	}

	a.respCache.Set(ctx, cacheKey, payload)
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// tagView is the wire shape of one popular tag.
type tagView struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Tags handles GET /api/portfolio/tags. A lookup failure degrades to an
// empty list: the gallery's tag bar is decoration, not a hard dependency.
func (a *API) Tags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	const cacheKey = "tags"
	if payload, ok := a.respCache.Get(ctx, cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
		return
	}

	views := []tagView{}
	tags, err := a.tags.Popular(0)
	if err != nil {
		slog.Error("popular tags lookup failed", "error", err)
	} else {
		for _, t := range tags {
			views = append(views, tagView{Name: t.Name, Slug: t.Slug, Count: t.UsageCount})
		}
	}

	payload, merr := json.Marshal(map[string]any{
		"success": true,
		"tags":    views,
	})
	if merr != nil {
		a.writeError(w, http.StatusInternalServerError, "Failed to load tags.", merr)
		return
	}

	// Do not cache the degraded empty response.
	if err == nil {
		a.respCache.Set(ctx, cacheKey, payload)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// contactRequest is the accepted contact form body.
type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Contact handles POST /api/contact. The body may be JSON or a classic
// form post.
func (a *API) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeError(w, http.StatusBadRequest, "Invalid request body.", err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			a.writeError(w, http.StatusBadRequest, "Invalid request body.", err)
			return
		}
		req.Name = r.PostFormValue("name")
		req.Email = r.PostFormValue("email")
		req.Phone = r.PostFormValue("phone")
		req.Service = r.PostFormValue("service")
		req.Message = r.PostFormValue("message")
	}

	err := a.contact.Submit(contact.Submission{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Service:   req.Service,
		Message:   req.Message,
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Thank you for your inquiry! We will get back to you soon.",
		})
	case errors.Is(err, contact.ErrValidation):
		a.writeError(w, http.StatusBadRequest, "Please provide your name, email, and message.", err)
	case errors.Is(err, contact.ErrEmailNotConfigured):
		a.writeError(w, http.StatusServiceUnavailable, "Contact form is temporarily unavailable.", err)
	case errors.Is(err, contact.ErrConfigUnavailable):
		a.writeError(w, http.StatusInternalServerError, "Failed to process your inquiry. Please try again later.", err)
	default:
		slog.Error("contact submission failed", "error", err)
		a.writeError(w, http.StatusInternalServerError, "Failed to process your inquiry. Please try again later.", err)
	}
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
