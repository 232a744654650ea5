package http

import (
	"context"
	"encoding/json"
	"errors"
	"fiscalfeed/internal/domain"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type aggregatorFunc func(ctx context.Context) ([]domain.FeedItem, error)

func (f aggregatorFunc) Aggregate(ctx context.Context) ([]domain.FeedItem, error) {
	return f(ctx)
}

func sampleItems() []domain.FeedItem {
	return []domain.FeedItem{{
		ID:             "rss-0",
		Title:          "Barème 2024",
		Link:           "https://www.impots.gouv.fr/bareme",
		PubDate:        "Tue, 02 Jan 2024 10:00:00 +0100",
		Date:           "02/01/2024",
		ContentSnippet: "Nouveau barème...",
		Excerpt:        "Nouveau barème...",
		Source:         "impots.gouv.fr",
		Author:         "impots.gouv.fr",
		Tags:           domain.DefaultTags(),
		Resources:      []string{},
		Published:      time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	}}
}

func TestHandler_Feed_Success(t *testing.T) {
	h := NewHandler(discardLogger(), aggregatorFunc(func(ctx context.Context) ([]domain.FeedItem, error) {
		return sampleItems(), nil
	}), "")
	req := httptest.NewRequest(http.MethodGet, "/api/rss", nil)
	rec := httptest.NewRecorder()

	h.Feed(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, DefaultCacheControl, rec.Header().Get("Cache-Control"))

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	item := body[0]
	assert.Equal(t, "rss-0", item["id"])
	assert.Equal(t, "Barème 2024", item["title"])
	assert.Equal(t, "02/01/2024", item["date"])
	assert.Equal(t, item["contentSnippet"], item["excerpt"])
	assert.Equal(t, item["source"], item["author"])
	assert.Equal(t, []any{"Fiscal", "Officiel"}, item["tags"])
	assert.Equal(t, []any{}, item["resources"])
	assert.NotContains(t, item, "Published")
	assert.NotContains(t, item, "Dated")
}

func TestHandler_Feed_EmptyIsArrayNotFallback(t *testing.T) {
	h := NewHandler(discardLogger(), aggregatorFunc(func(ctx context.Context) ([]domain.FeedItem, error) {
		return nil, nil
	}), "")
	rec := httptest.NewRecorder()

	h.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/rss", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, DefaultCacheControl, rec.Header().Get("Cache-Control"))
}

func TestHandler_Feed_ErrorServesFallback(t *testing.T) {
	h := NewHandler(discardLogger(), aggregatorFunc(func(ctx context.Context) ([]domain.FeedItem, error) {
		return nil, errors.New("unexpected")
	}), "")
	rec := httptest.NewRecorder()

	h.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/rss", nil))

	assertFallback(t, rec)
}

func TestHandler_Feed_PanicServesFallback(t *testing.T) {
	h := NewHandler(discardLogger(), aggregatorFunc(func(ctx context.Context) ([]domain.FeedItem, error) {
		var items []domain.FeedItem
		_ = items[3]
		return items, nil
	}), "")
	rec := httptest.NewRecorder()

	h.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/rss", nil))

	assertFallback(t, rec)
}

func assertFallback(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body []domain.FeedItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, domain.FallbackID, body[0].ID)
	assert.Equal(t, domain.FallbackSource, body[0].Source)
	assert.Equal(t, domain.FallbackSource, body[0].Author)
	assert.NotEmpty(t, body[0].Title)
	assert.NotEmpty(t, body[0].Date)
	assert.NotEmpty(t, body[0].Tags)
}

func TestHandler_Feed_CustomCacheControl(t *testing.T) {
	h := NewHandler(discardLogger(), aggregatorFunc(func(ctx context.Context) ([]domain.FeedItem, error) {
		return sampleItems(), nil
	}), "public, max-age=60")
	rec := httptest.NewRecorder()

	h.Feed(rec, httptest.NewRequest(http.MethodGet, "/api/rss", nil))

	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
}

func TestHandler_Test(t *testing.T) {
	h := NewHandler(discardLogger(), nil, "")
	rec := httptest.NewRecorder()

	h.Test(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"message":"Test réussi","data":[]}`, rec.Body.String())
}
