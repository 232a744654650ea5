package usecase

import (
	"context"
	"fiscalfeed/internal/domain"
)

// FeedFetcher определяет интерфейс для загрузки RSS-лент из внешних источников.
// Ограничение по времени обеспечивает реализация.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FeedParser определяет интерфейс для извлечения новостей из тела ленты.
// Отсутствующие поля заменяются значениями по умолчанию, поэтому ошибка
// возвращается только при отмене контекста или непредвиденном сбое.
type FeedParser interface {
	Parse(ctx context.Context, body []byte, src domain.FeedSource) ([]domain.FeedItem, error)
}
