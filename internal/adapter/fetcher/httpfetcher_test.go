package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	var gotUA string
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<rss></rss>"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), WithUserAgent("fiscalfeed-test"))

	body, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	assert.Equal(t, "<rss></rss>", string(body))
	assert.Equal(t, "fiscalfeed-test", gotUA)
}

func TestHTTPFetcher_Fetch_AcceptsAny2xx(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		w.Write([]byte("ok"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger())

	body, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestHTTPFetcher_Fetch_NotFound(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger())

	body, err := fetcher.Fetch(context.Background(), testServer.URL)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
	assert.Nil(t, body)
}

func TestHTTPFetcher_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer testServer.Close()
	defer close(release)
	fetcher := NewHTTPFetcher(discardLogger(), WithTimeout(50*time.Millisecond))

	start := time.Now()
	body, err := fetcher.Fetch(context.Background(), testServer.URL)

	assert.Error(t, err)
	assert.Nil(t, body)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(discardLogger())

	body, err := fetcher.Fetch(context.Background(), "invalid://url")

	assert.Error(t, err)
	assert.Nil(t, body)
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("slow response"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body, err := fetcher.Fetch(ctx, testServer.URL)

	assert.Error(t, err)
	assert.Nil(t, body)
}

func TestHTTPFetcher_Fetch_BodyTooLarge(t *testing.T) {
	oversized := strings.Repeat("x", maxBodySize+8)
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(oversized))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger())

	body, err := fetcher.Fetch(context.Background(), testServer.URL)

	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Nil(t, body)
}

func TestHTTPFetcher_Fetch_BodyAtLimit(t *testing.T) {
	exact := strings.Repeat("x", maxBodySize)
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(exact))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger())

	body, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	assert.Len(t, body, maxBodySize)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestHTTPFetcher_WithClient(t *testing.T) {
	var gotAccept string
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotAccept = r.Header.Get("Accept")
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("<rss>stub</rss>")),
			Request:    r,
		}, nil
	})}
	fetcher := NewHTTPFetcher(discardLogger(), WithClient(client))

	body, err := fetcher.Fetch(context.Background(), "https://www.impots.gouv.fr/rss.xml")

	require.NoError(t, err)
	assert.Equal(t, "<rss>stub</rss>", string(body))
	assert.Contains(t, gotAccept, "application/rss+xml")
}
