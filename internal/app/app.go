package app

import (
	"context"
	"fiscalfeed/internal/adapter/fetcher"
	"fiscalfeed/internal/adapter/parser"
	"fiscalfeed/internal/config"
	"fiscalfeed/internal/logger"
	server "fiscalfeed/internal/transport/http"
	"fiscalfeed/internal/usecase"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// App представляет сервис fiscalfeed целиком: HTTP-сервер с лентой
// новостей и тестовым эндпоинтом. Обеспечивает graceful startup и shutdown.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	server   *http.Server
	stopChan chan os.Signal
	wg       sync.WaitGroup
}

// New создает и инициализирует приложение: логгер, загрузчик, парсер,
// агрегатор и роутер. Возвращает ошибку, если конфигурация некорректна
// или логгер не удалось создать.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	router := server.NewServer(appLogger, NewHandler(cfg, appLogger))

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &App{
		config:   cfg,
		logger:   appLogger,
		server:   httpServer,
		stopChan: make(chan os.Signal, 1),
	}, nil
}

// NewHandler собирает зависимости HTTP-хендлеров по конфигурации.
// Используется и сервером, и точками входа Cloud Functions.
func NewHandler(cfg *config.Config, log *slog.Logger) *server.Handler {
	httpFetcher := fetcher.NewHTTPFetcher(log,
		fetcher.WithTimeout(cfg.App.FetchTimeoutDuration()),
		fetcher.WithUserAgent(cfg.App.UserAgent),
	)

	opts := parser.Options{Location: cfg.App.Location()}
	var feedParser usecase.FeedParser
	switch cfg.App.Parser {
	case config.ParserGofeed:
		feedParser = parser.NewGofeedParser(log, opts)
	default:
		feedParser = parser.NewRegexParser(log, opts)
	}

	aggregator := usecase.NewAggregationUseCase(cfg.App.Sources, httpFetcher, feedParser, log, cfg.App.TopN)

	return server.NewHandler(log, aggregator, cfg.App.CacheControl)
}

// Run запускает HTTP-сервер и блокируется до сигнала завершения
// (SIGINT, SIGTERM) или ошибки сервера.
func (a *App) Run() error {
	a.logger.Info("Starting fiscalfeed",
		slog.String("component", "app"),
		slog.Int("source_count", len(a.config.App.Sources)),
		slog.String("parser", a.config.App.Parser),
		slog.String("fetch_timeout", a.config.App.FetchTimeout),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serveErr <- err
		}
	}()
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case err := <-serveErr:
		a.Shutdown()
		return fmt.Errorf("http server: %w", err)
	}
	return a.Shutdown()
}

// Stop инициирует остановку Run так же, как сигнал SIGTERM.
func (a *App) Stop() {
	select {
	case a.stopChan <- syscall.SIGTERM:
	default:
	}
}

// Shutdown выполняет graceful shutdown: завершает HTTP-сервер с таймаутом
// из конфигурации и ожидает завершения всех горутин.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeoutDuration())
	defer cancel()
	var shutdownErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
		shutdownErr = fmt.Errorf("http server shutdown: %w", err)
	}
	a.wg.Wait()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return shutdownErr
}
