package http

import (
	"context"
	"encoding/json"
	"fiscalfeed/internal/domain"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

const (
	TestMessage         = "Test réussi"
	DefaultCacheControl = "public, s-maxage=3600, stale-while-revalidate=1800"
)

type feedAggregator interface {
	Aggregate(ctx context.Context) ([]domain.FeedItem, error)
}

type Handler struct {
	log          *slog.Logger
	aggregator   feedAggregator
	cacheControl string
	now          func() time.Time
}

func NewHandler(log *slog.Logger, aggregator feedAggregator, cacheControl string) *Handler {
	if cacheControl == "" {
		cacheControl = DefaultCacheControl
	}
	return &Handler{
		log:          log,
		aggregator:   aggregator,
		cacheControl: cacheControl,
		now:          time.Now,
	}
}

// Feed - хендлер ленты новостей (GET /api/rss).
// Всегда отвечает 200 и валидным JSON-массивом: при непредвиденном сбое
// агрегации клиент получает массив из одной резервной новости.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/Feed"
	log := h.log.With(
		slog.String("component", "http"),
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	items, err := h.aggregate(r.Context())
	if err != nil {
		log.Error("Feed aggregation failed, serving fallback", slog.Any("error", err))
		h.respondWithFallback(w)
		return
	}
	payload, err := json.Marshal(items)
	if err != nil {
		log.Error("Failed to marshal feed items, serving fallback", slog.Any("error", err))
		h.respondWithFallback(w)
		return
	}
	w.Header().Set("Cache-Control", h.cacheControl)
	writeJSON(w, http.StatusOK, payload)
}

// aggregate вызывает агрегатор и превращает панику в ошибку.
func (h *Handler) aggregate(ctx context.Context) (items []domain.FeedItem, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("Panic during aggregation",
				slog.String("component", "http"),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			items, err = nil, fmt.Errorf("panic during aggregation: %v", rec)
		}
	}()
	items, err = h.aggregator.Aggregate(ctx)
	if err == nil && items == nil {
		items = []domain.FeedItem{}
	}
	return items, err
}

// respondWithFallback отдает резервный массив. Он не кэшируется посредниками,
// чтобы восстановившийся сервис не ждал истечения часа.
func (h *Handler) respondWithFallback(w http.ResponseWriter) {
	payload, err := json.Marshal(domain.FallbackItems(h.now()))
	if err != nil {
		payload = []byte(`[{"id":"error-fallback","source":"Système"}]`)
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, payload)
}

type testResponse struct {
	Message string `json:"message"`
	Data    []any  `json:"data"`
}

// Test - статический тестовый эндпоинт (GET /api/test).
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	respondWithJSON(w, http.StatusOK, testResponse{Message: TestMessage, Data: []any{}})
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	writeJSON(w, code, response)
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}
