package config

import (
	"encoding/json"
	"fiscalfeed/internal/domain"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ParserRegex  = "regex"
	ParserGofeed = "gofeed"
)

// Config представляет основную конфигурацию сервиса fiscalfeed.
// Содержит настройки сервера, логгера и агрегатора лент.
type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`
	Logger LoggerConfig `json:"logger" yaml:"logger"`
	App    AppConfig    `json:"app" yaml:"app"`
}

// ServerConfig содержит настройки HTTP-сервера.
type ServerConfig struct {
	Address         string `json:"address" yaml:"address"`
	ShutdownTimeout string `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggerConfig содержит настройки системы логирования.
// Level: debug, info, warn, error. Format: text или json.
// Если File и ErrorFile пусты, логи пишутся в stdout и stderr.
type LoggerConfig struct {
	Level     string `json:"level" yaml:"level"`
	Format    string `json:"format" yaml:"format"`
	File      string `json:"file" yaml:"file"`
	ErrorFile string `json:"error_file" yaml:"error_file"`
}

// AppConfig содержит настройки агрегатора: список лент, таймаут загрузки,
// размер выдачи, тип парсера и заголовок кэширования ответа.
type AppConfig struct {
	Sources      []domain.FeedSource `json:"sources" yaml:"sources"`
	FetchTimeout string              `json:"fetch_timeout" yaml:"fetch_timeout"`
	TopN         int                 `json:"top_n" yaml:"top_n"`
	Parser       string              `json:"parser" yaml:"parser"`
	UserAgent    string              `json:"user_agent" yaml:"user_agent"`
	TimeZone     string              `json:"time_zone" yaml:"time_zone"`
	CacheControl string              `json:"cache_control" yaml:"cache_control"`
}

// DefaultSources возвращает встроенный список лент налоговой службы.
func DefaultSources() []domain.FeedSource {
	return []domain.FeedSource{
		{URL: "https://www.impots.gouv.fr/rss.xml", Label: "impots.gouv.fr"},
		{URL: "https://bofip.impots.gouv.fr/bofip/rss.xml", Label: "BOFiP-Impôts"},
	}
}

// New создает новый экземпляр Config со значениями по умолчанию.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownTimeout: "10s",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
		App: AppConfig{
			Sources:      DefaultSources(),
			FetchTimeout: "4s",
			TopN:         8,
			Parser:       ParserRegex,
			UserAgent:    "fiscalfeed/1.0 (+https://www.impots.gouv.fr)",
			TimeZone:     "UTC",
			CacheControl: "public, s-maxage=3600, stale-while-revalidate=1800",
		},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем файл (если путь
// задан), затем .env и переменные окружения. Формат файла определяется по
// расширению: .json, .yaml или .yml.
func Load(configPath string) (*Config, error) {
	cfg := New()
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}
	// .env необязателен
	_ = godotenv.Load()
	cfg.ApplyEnv()
	return cfg, nil
}

func (c *Config) loadFile(configPath string) error {
	fileData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, c); err != nil {
			return fmt.Errorf("failed to parse YAML from file %s: %w", configPath, err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, c); err != nil {
			return fmt.Errorf("failed to parse JSON from file %s: %w", configPath, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension: %s", configPath)
	}
	return nil
}

// ApplyEnv переопределяет настройки из переменных окружения.
// PORT учитывается для совместимости с Cloud Run и Cloud Functions.
func (c *Config) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Address = ":" + port
	}
	if v := os.Getenv("FISCALFEED_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("FISCALFEED_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("FISCALFEED_LOG_FORMAT"); v != "" {
		c.Logger.Format = v
	}
	if v := os.Getenv("FISCALFEED_PARSER"); v != "" {
		c.App.Parser = v
	}
	if v := os.Getenv("FISCALFEED_FETCH_TIMEOUT"); v != "" {
		c.App.FetchTimeout = v
	}
	if v := os.Getenv("FISCALFEED_TIME_ZONE"); v != "" {
		c.App.TimeZone = v
	}
}

// Validate проверяет корректность конфигурации и возвращает ошибку
// с описанием первой найденной проблемы.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is not set")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server.shutdown_timeout: %w", err)
	}
	if len(c.App.Sources) == 0 {
		return fmt.Errorf("app.sources must not be empty")
	}
	for _, src := range c.App.Sources {
		if _, err := url.ParseRequestURI(src.URL); err != nil {
			return fmt.Errorf("invalid url in app.sources: %s", src.URL)
		}
		if src.Label == "" {
			return fmt.Errorf("source label cannot be empty for url: %s", src.URL)
		}
	}
	timeout, err := time.ParseDuration(c.App.FetchTimeout)
	if err != nil {
		return fmt.Errorf("invalid app.fetch_timeout: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("app.fetch_timeout must be positive")
	}
	if c.App.TopN <= 0 {
		return fmt.Errorf("app.top_n must be a positive number")
	}
	switch c.App.Parser {
	case ParserRegex, ParserGofeed:
	default:
		return fmt.Errorf("unknown app.parser: %q", c.App.Parser)
	}
	if _, err := time.LoadLocation(c.App.TimeZone); err != nil {
		return fmt.Errorf("invalid app.time_zone: %w", err)
	}
	switch c.Logger.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logger.format: %q", c.Logger.Format)
	}
	return nil
}

// FetchTimeoutDuration возвращает таймаут загрузки ленты.
// Вызывать после Validate.
func (c *AppConfig) FetchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchTimeout)
	return d
}

// Location возвращает часовой пояс для форматирования дат.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShutdownTimeoutDuration возвращает таймаут graceful shutdown.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
