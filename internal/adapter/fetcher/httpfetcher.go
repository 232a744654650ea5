package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultTimeout = 4 * time.Second
	maxBodySize    = 5 << 20
)

// ErrBodyTooLarge возвращается, если тело ответа больше допустимого размера.
var ErrBodyTooLarge = errors.New("response body too large")

// HTTPFetcher загружает RSS-ленты по HTTP с жестким ограничением по времени.
// Таймаут распространяется на установку соединения, заголовки и чтение тела.
type HTTPFetcher struct {
	client    *http.Client
	log       *slog.Logger
	timeout   time.Duration
	userAgent string
}

// Option настраивает HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout задает таймаут одной загрузки.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent задает заголовок User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithClient подменяет HTTP-клиент.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// NewHTTPFetcher создает новый экземпляр HTTPFetcher для загрузки RSS-лент.
func NewHTTPFetcher(log *slog.Logger, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  http.DefaultClient,
		log:     log,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch выполняет GET-запрос и возвращает тело ответа целиком.
// Любой ответ вне диапазона 2xx, сетевая ошибка, превышение таймаута или
// тело больше 5 MiB возвращаются как ошибка; решение о том, что с ней делать,
// принимает вызывающий.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	const op = "adapter.fetcher.Fetch"
	log := f.log.With(slog.String("op", op), slog.String("url", url))
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	log.Debug("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch url %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("Unexpected status code", slog.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("unexpected status code: %d for url %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		log.Error("Failed to read response body", slog.Any("error", err))
		return nil, fmt.Errorf("failed to read body of url %s: %w", url, err)
	}
	if len(body) > maxBodySize {
		log.Warn("Response body exceeds size limit", slog.Int("limit_bytes", maxBodySize))
		return nil, fmt.Errorf("%w: more than %d bytes for url %s", ErrBodyTooLarge, maxBodySize, url)
	}
	log.Debug("Successfully fetched URL",
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
	)
	return body, nil
}
