package usecase

import (
	"context"
	"fiscalfeed/internal/domain"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultLimit = 8

// AggregationUseCase реализует бизнес-логику ленты новостей: параллельная
// загрузка всех источников, извлечение новостей, сортировка по дате
// публикации и отбор самых свежих.
type AggregationUseCase struct {
	sources []domain.FeedSource
	fetcher FeedFetcher
	parser  FeedParser
	log     *slog.Logger
	limit   int
}

// NewAggregationUseCase создает новый экземпляр UseCase агрегации.
// Если limit не положителен, используется DefaultLimit.
func NewAggregationUseCase(
	sources []domain.FeedSource,
	fetcher FeedFetcher,
	parser FeedParser,
	log *slog.Logger,
	limit int,
) *AggregationUseCase {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &AggregationUseCase{
		sources: append([]domain.FeedSource(nil), sources...),
		fetcher: fetcher,
		parser:  parser,
		log:     log,
		limit:   limit,
	}
}

type sourceResult struct {
	items []domain.FeedItem
	panic error
}

// Aggregate загружает все источники параллельно и дожидается каждого из них.
// Сбой отдельного источника (сеть, таймаут, статус вне 2xx) логируется,
// и источник просто не дает новостей; если упали все, результат пустой.
// Ошибка возвращается только при непредвиденном сбое обработки.
func (uc *AggregationUseCase) Aggregate(ctx context.Context) ([]domain.FeedItem, error) {
	const op = "usecase.Aggregate"
	log := uc.log.With(
		slog.String("component", "aggregator"),
		slog.String("op", op),
	)
	start := time.Now()
	results := make([]sourceResult, len(uc.sources))
	var wg sync.WaitGroup
	var successCount int64
	var errorCount int64
	for i, src := range uc.sources {
		wg.Add(1)
		go func(i int, src domain.FeedSource) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].panic = fmt.Errorf("panic while processing %s: %v", src.Label, r)
					log.Error("Source processing panicked",
						slog.String("source", src.Label),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			items, err := uc.processSource(ctx, src)
			if err != nil {
				atomic.AddInt64(&errorCount, 1)
				log.Error("Feed source failed, skipping",
					slog.String("source", src.Label),
					slog.String("url", src.URL),
					slog.Any("error", err),
				)
				return
			}
			atomic.AddInt64(&successCount, 1)
			results[i].items = items
		}(i, src)
	}
	wg.Wait()

	var all []domain.FeedItem
	for _, res := range results {
		if res.panic != nil {
			return nil, fmt.Errorf("%s: %w", op, res.panic)
		}
		all = append(all, res.items...)
	}
	top := SortAndTruncate(all, uc.limit)

	log.Info("Aggregation completed",
		slog.Int("successful", int(successCount)),
		slog.Int("errors", int(errorCount)),
		slog.Int("items_found", len(all)),
		slog.Int("items_returned", len(top)),
		slog.Duration("duration", time.Since(start)),
	)
	return top, nil
}

func (uc *AggregationUseCase) processSource(ctx context.Context, src domain.FeedSource) ([]domain.FeedItem, error) {
	body, err := uc.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", src.Label, err)
	}
	items, err := uc.parser.Parse(ctx, body, src)
	if err != nil {
		return nil, fmt.Errorf("parse failed for %s: %w", src.Label, err)
	}
	uc.log.Debug("Feed source parsed",
		slog.String("component", "aggregator"),
		slog.String("source", src.Label),
		slog.Int("count", len(items)),
	)
	return items, nil
}

// SortAndTruncate упорядочивает новости по дате публикации, от новых к старым,
// и оставляет не более limit первых. Сортировка стабильна: при равных датах
// сохраняется порядок источников и порядок внутри ленты. Новости с нераспознанной
// датой сортируются по моменту разбора, который парсер записал в Published.
func SortAndTruncate(items []domain.FeedItem, limit int) []domain.FeedItem {
	sorted := make([]domain.FeedItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.After(sorted[j].Published)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
