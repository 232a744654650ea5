// Package fiscalfeed публикует ленту и тестовый эндпоинт как Cloud Functions.
package fiscalfeed

import (
	"fiscalfeed/internal/app"
	"fiscalfeed/internal/config"
	"fiscalfeed/internal/logger"
	server "fiscalfeed/internal/transport/http"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
)

func init() {
	functions.HTTP("Feed", Feed)
	functions.HTTP("Test", Test)
}

var (
	handlersOnce sync.Once
	feedHandler  http.Handler
	testHandler  http.Handler
)

// setupHandlers собирает хендлеры один раз на экземпляр функции.
// Конфигурация берется из .env и переменных окружения; при ошибке
// используются значения по умолчанию, чтобы лента оставалась доступной.
func setupHandlers() {
	cfg, err := config.Load("")
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("Invalid function config, using defaults",
			slog.String("component", "function"),
			slog.Any("error", err),
		)
		cfg = config.New()
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		log = slog.Default()
	}
	h := app.NewHandler(cfg, log)
	feedHandler = server.Chain(log, http.HandlerFunc(h.Feed))
	testHandler = server.Chain(log, http.HandlerFunc(h.Test))
}

// Feed отдает до восьми последних новостей налоговой службы.
func Feed(w http.ResponseWriter, r *http.Request) {
	handlersOnce.Do(setupHandlers)
	feedHandler.ServeHTTP(w, r)
}

// Test отвечает фиксированным тестовым сообщением.
func Test(w http.ResponseWriter, r *http.Request) {
	handlersOnce.Do(setupHandlers)
	testHandler.ServeHTTP(w, r)
}
