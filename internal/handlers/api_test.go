package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"printfolio/internal/cache"
	"printfolio/internal/contact"
	"printfolio/internal/models"
	"printfolio/internal/store"
)

// fakeItemLister records the last query and returns canned results.
type fakeItemLister struct {
	items   []models.PortfolioItem
	page    store.Page
	err     error
	gotF    store.Filter
	gotPage int
	gotPer  int
}

func (f *fakeItemLister) ListPublished(filter store.Filter, page, perPage int) ([]models.PortfolioItem, store.Page, error) {
	f.gotF = filter
	f.gotPage = page
	f.gotPer = perPage
	return f.items, f.page, f.err
}

type fakeTagLister struct {
	tags []models.Tag
	err  error
}

func (f *fakeTagLister) Popular(limit int) ([]models.Tag, error) {
	return f.tags, f.err
}

type fakeSubmitter struct {
	got contact.Submission
	err error
}

func (f *fakeSubmitter) Submit(sub contact.Submission) error {
	f.got = sub
	return f.err
}

// fakeURLs maps keys to predictable URLs.
type fakeURLs struct {
	err error
}

func (f *fakeURLs) URL(_ context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + name, nil
}

func testAPI(items *fakeItemLister, tags *fakeTagLister, sub *fakeSubmitter, urls *fakeURLs) *API {
	return NewAPI(items, tags, sub, urls, cache.NewResponseCache(nil, 0), false)
}

func sampleItem() models.PortfolioItem {
	thumb := "portfolio/2026/03/x_thumb.jpg"
	return models.PortfolioItem{
		ID:          uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Title:       "conference banner",
		Slug:        "conference-banner",
		ImageKey:    "portfolio/2026/03/x.png",
		ThumbKey:    &thumb,
		Description: "roll-up banner",
		IsPublished: true,
		CreatedAt:   time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC),
		Tags:        []string{"Banners"},
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestPortfolio_Defaults(t *testing.T) {
	items := &fakeItemLister{
		items: []models.PortfolioItem{sampleItem()},
		page:  store.Page{Number: 1, PerPage: 6, TotalPages: 1, TotalItems: 1},
	}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if items.gotPage != 1 || items.gotPer != 6 {
		t.Errorf("defaults = page %d per %d, want 1, 6", items.gotPage, items.gotPer)
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("success flag missing")
	}

	list := body["items"].([]any)
	if len(list) != 1 {
		t.Fatalf("items = %d, want 1", len(list))
	}
	item := list[0].(map[string]any)
	if item["title"] != "Conference banner" {
		t.Errorf("title = %q, want display-cased", item["title"])
	}
	if item["thumbnail"] != "https://cdn.example.com/portfolio/2026/03/x_thumb.jpg" {
		t.Errorf("thumbnail = %q", item["thumbnail"])
	}
	if item["fullImage"] != "https://cdn.example.com/portfolio/2026/03/x.png" {
		t.Errorf("fullImage = %q", item["fullImage"])
	}
	if item["created_at"] != "2026-03-09T10:00:00Z" {
		t.Errorf("created_at = %v", item["created_at"])
	}

	pagination := body["pagination"].(map[string]any)
	if pagination["current_page"].(float64) != 1 || pagination["total_items"].(float64) != 1 {
		t.Errorf("pagination = %v", pagination)
	}
}

func TestPortfolio_ThumbnailFallsBackToFullImage(t *testing.T) {
	item := sampleItem()
	item.ThumbKey = nil
	items := &fakeItemLister{items: []models.PortfolioItem{item}, page: store.Page{Number: 1, TotalPages: 1, TotalItems: 1}}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	view := decodeBody(t, rec)["items"].([]any)[0].(map[string]any)
	if view["thumbnail"] != view["fullImage"] {
		t.Errorf("thumbnail = %q, fullImage = %q", view["thumbnail"], view["fullImage"])
	}
}

func TestPortfolio_EmptyTagsSerializeAsList(t *testing.T) {
	item := sampleItem()
	item.Tags = nil
	items := &fakeItemLister{items: []models.PortfolioItem{item}, page: store.Page{Number: 1, TotalPages: 1, TotalItems: 1}}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	if !strings.Contains(rec.Body.String(), `"tags":[]`) {
		t.Errorf("nil tags should serialize as []: %s", rec.Body.String())
	}
}

func TestPortfolio_QueryParams(t *testing.T) {
	items := &fakeItemLister{page: store.Page{Number: 1, TotalPages: 1}}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet,
		"/api/portfolio?search=banner&tags=Banners,Cards&page=3&per_page=500", nil))

	if items.gotF.Search != "banner" {
		t.Errorf("search = %q", items.gotF.Search)
	}
	if len(items.gotF.TagsAll) != 2 {
		t.Errorf("tags all = %v", items.gotF.TagsAll)
	}
	if items.gotPage != 3 {
		t.Errorf("page = %d", items.gotPage)
	}
	if items.gotPer != maxPerPage {
		t.Errorf("per_page = %d, want capped at %d", items.gotPer, maxPerPage)
	}
}

func TestPortfolio_RepeatedTagsMatchAny(t *testing.T) {
	items := &fakeItemLister{page: store.Page{Number: 1, TotalPages: 1}}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet,
		"/api/portfolio?tags[]=Banners&tags[]=Cards", nil))

	if len(items.gotF.TagsAny) != 2 || len(items.gotF.TagsAll) != 0 {
		t.Errorf("filter = %+v", items.gotF)
	}
}

func TestPortfolio_AllDisablesTagFiltering(t *testing.T) {
	items := &fakeItemLister{page: store.Page{Number: 1, TotalPages: 1}}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio?tags=all", nil))

	if len(items.gotF.TagsAll) != 0 || len(items.gotF.TagsAny) != 0 {
		t.Errorf("tags=all should disable filtering: %+v", items.gotF)
	}
}

func TestPortfolio_AllInTagListDisablesTagFiltering(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"csv with other tags", "tags=all,Banners"},
		{"csv mixed case", "tags=Banners,ALL,Stickers"},
		{"array form", "tags%5B%5D=Banners&tags%5B%5D=all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := &fakeItemLister{page: store.Page{Number: 1, TotalPages: 1}}
			api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

			rec := httptest.NewRecorder()
			api.Portfolio(rec, httptest.NewRequest(http.MethodGet,
				"/api/portfolio?"+tt.query, nil))

			if len(items.gotF.TagsAll) != 0 || len(items.gotF.TagsAny) != 0 {
				t.Errorf("%q should disable tag filtering: %+v", tt.query, items.gotF)
			}
		})
	}
}

func TestPortfolio_BadPageParamsFallBack(t *testing.T) {
	items := &fakeItemLister{page: store.Page{Number: 1, TotalPages: 1}}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet,
		"/api/portfolio?page=banana&per_page=-3", nil))

	if items.gotPage != 1 || items.gotPer != defaultPerPage {
		t.Errorf("got page %d per %d, want defaults", items.gotPage, items.gotPer)
	}
}

func TestPortfolio_StoreError(t *testing.T) {
	items := &fakeItemLister{err: errors.New("connection refused")}
	api := testAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Error("success should be false")
	}
	// Detail is hidden outside debug mode.
	if body["error"] != "Internal server error" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestPortfolio_StoreErrorDebugExposesDetail(t *testing.T) {
	items := &fakeItemLister{err: errors.New("connection refused")}
	api := NewAPI(items, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{}, cache.NewResponseCache(nil, 0), true)

	rec := httptest.NewRecorder()
	api.Portfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	if body := decodeBody(t, rec); !strings.Contains(body["error"].(string), "connection refused") {
		t.Errorf("debug error = %q", body["error"])
	}
}

func TestTags(t *testing.T) {
	tags := &fakeTagLister{tags: []models.Tag{
		{Name: "Banners", Slug: "banners", UsageCount: 4},
		{Name: "Cards", Slug: "cards", UsageCount: 2},
	}}
	api := testAPI(&fakeItemLister{}, tags, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Tags(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/tags", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	list := body["tags"].([]any)
	if len(list) != 2 {
		t.Fatalf("tags = %d, want 2", len(list))
	}
	first := list[0].(map[string]any)
	if first["name"] != "Banners" || first["count"].(float64) != 4 {
		t.Errorf("first tag = %v", first)
	}
}

func TestTags_ErrorDegradesToEmptyList(t *testing.T) {
	tags := &fakeTagLister{err: errors.New("db down")}
	api := testAPI(&fakeItemLister{}, tags, &fakeSubmitter{}, &fakeURLs{})

	rec := httptest.NewRecorder()
	api.Tags(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio/tags", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("degraded response should still be success")
	}
	if len(body["tags"].([]any)) != 0 {
		t.Errorf("tags = %v, want empty", body["tags"])
	}
}

func TestContact_JSONBody(t *testing.T) {
	sub := &fakeSubmitter{}
	api := testAPI(&fakeItemLister{}, &fakeTagLister{}, sub, &fakeURLs{})

	req := httptest.NewRequest(http.MethodPost, "/api/contact",
		strings.NewReader(`{"name":"Ana","email":"ana@example.com","message":"hello","service":"packaging"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "test-agent")

	rec := httptest.NewRecorder()
	api.Contact(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if sub.got.Name != "Ana" || sub.got.Service != "packaging" {
		t.Errorf("submission = %+v", sub.got)
	}
	if sub.got.IPAddress != "203.0.113.9" {
		t.Errorf("ip = %q, want first forwarded entry", sub.got.IPAddress)
	}
	if sub.got.UserAgent != "test-agent" {
		t.Errorf("user agent = %q", sub.got.UserAgent)
	}
	if body := decodeBody(t, rec); !strings.Contains(body["message"].(string), "Thank you") {
		t.Errorf("message = %q", body["message"])
	}
}

func TestContact_FormBody(t *testing.T) {
	sub := &fakeSubmitter{}
	api := testAPI(&fakeItemLister{}, &fakeTagLister{}, sub, &fakeURLs{})

	form := url.Values{}
	form.Set("name", "Ana")
	form.Set("email", "ana@example.com")
	form.Set("message", "hello")

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	api.Contact(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if sub.got.Email != "ana@example.com" {
		t.Errorf("email = %q", sub.got.Email)
	}
}

func TestContact_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", contact.ErrValidation, http.StatusBadRequest},
		{"not configured", contact.ErrEmailNotConfigured, http.StatusServiceUnavailable},
		{"config unavailable", contact.ErrConfigUnavailable, http.StatusInternalServerError},
		{"delivery", contact.ErrDelivery, http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := testAPI(&fakeItemLister{}, &fakeTagLister{}, &fakeSubmitter{err: tt.err}, &fakeURLs{})

			req := httptest.NewRequest(http.MethodPost, "/api/contact",
				strings.NewReader(`{"name":"a","email":"b","message":"c"}`))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			api.Contact(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := decodeBody(t, rec); body["success"] != false {
				t.Error("success should be false")
			}
		})
	}
}

func TestContact_MalformedJSON(t *testing.T) {
	api := testAPI(&fakeItemLister{}, &fakeTagLister{}, &fakeSubmitter{}, &fakeURLs{})

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	api.Contact(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}
