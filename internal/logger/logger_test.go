package logger

import (
	"bytes"
	"errors"
	"fiscalfeed/internal/config"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDispatcherHandler_RoutesErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	log := slog.New(NewLevelDispatcherHandler(&out, &errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Info("feed fetched", slog.String("component", "fetcher"), slog.Int("count", 3))
	log.Error("feed failed", slog.String("component", "fetcher"), slog.Any("error", errors.New("boom")))

	assert.Contains(t, out.String(), "INFO [fetcher]: feed fetched | count=3")
	assert.NotContains(t, out.String(), "feed failed")
	assert.Contains(t, errOut.String(), `ERROR [fetcher]: feed failed | error="boom"`)
}

func TestReadableHandler_KeepsWithAttrs(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, nil)).With(
		slog.String("component", "aggregator"),
		slog.String("op", "usecase.Aggregate"),
	)

	log.Info("aggregation completed", slog.Int("items", 8))

	assert.Contains(t, out.String(), "INFO [aggregator] (usecase.Aggregate): aggregation completed | items=8")
}

func TestReadableHandler_GroupAndLevel(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.WithGroup("http").Warn("slow request", slog.String("path", "/api/rss"))

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "WARN: slow request | http.path=/api/rss")
}

func TestReadableHandler_ShortensURL(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(NewReadableHandler(&out, nil))

	log.Info("fetching", slog.String("url", "https://bofip.impots.gouv.fr/bofip/some/really/long/path/rss.xml"))

	assert.Contains(t, out.String(), "url=https://bofip.impots.gouv.fr/...")
}

func TestNew_Files(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LoggerConfig{
		Level:     "debug",
		File:      filepath.Join(dir, "fiscalfeed.log"),
		ErrorFile: filepath.Join(dir, "fiscalfeed_error.log"),
	}

	log, err := New(cfg)
	require.NoError(t, err)
	log.Debug("debug line")
	log.Error("error line")

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
	errData, err := os.ReadFile(cfg.ErrorFile)
	require.NoError(t, err)
	assert.Contains(t, string(errData), "error line")
	assert.Contains(t, string(errData), "logger_test.go")
}

func TestNew_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LoggerConfig{
		Format: "json",
		File:   filepath.Join(dir, "fiscalfeed.log"),
	}

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("json line", slog.String("component", "app"))

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"json line"`)
	assert.Contains(t, string(data), `"component":"app"`)
}

func TestNew_BadFile(t *testing.T) {
	_, err := New(config.LoggerConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}
