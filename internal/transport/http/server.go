package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewServer создает роутер с эндпоинтами API и middleware.
// GET /api/rss - лента, GET /api/test - тестовый ответ, GET /api/health - проверка.
// Прочие методы на этих путях получают 405, неизвестные пути - 404.
func NewServer(log *slog.Logger, h *Handler) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/rss", h.Feed).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/api/test", h.Test).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/api/health", h.healthCheck).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Warn("method not allowed",
			slog.String("component", "http"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return Chain(log, router)
}
