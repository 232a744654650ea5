package parser

import (
	"bytes"
	"context"
	"fiscalfeed/internal/domain"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// GofeedParser разбирает ленту как документ (RSS или Atom) через gofeed,
// а текст описания получает из HTML через goquery. Если документ не удается
// разобрать, используется RegexParser, чтобы извлечение не падало
// на некорректной разметке.
type GofeedParser struct {
	log      *slog.Logger
	opts     Options
	fallback *RegexParser
}

func NewGofeedParser(log *slog.Logger, opts Options) *GofeedParser {
	opts = opts.withDefaults()
	return &GofeedParser{
		log:      log,
		opts:     opts,
		fallback: NewRegexParser(log, opts),
	}
}

// Parse реализует метод интерфейса FeedParser.
func (p *GofeedParser) Parse(ctx context.Context, body []byte, src domain.FeedSource) ([]domain.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		p.log.Warn("gofeed could not parse feed, falling back to regex extraction",
			slog.String("source", src.Label),
			slog.Any("error", err),
		)
		return p.fallback.Parse(ctx, body, src)
	}
	now := p.opts.Now()
	items := make([]domain.FeedItem, 0, len(feed.Items))
	for i, it := range feed.Items {
		raw := rawItem{
			Title:       strings.TrimSpace(it.Title),
			Link:        strings.TrimSpace(it.Link),
			PubDate:     it.Published,
			Description: it.Description,
			Published:   it.PublishedParsed,
		}
		if raw.PubDate == "" {
			raw.PubDate = it.Updated
			raw.Published = it.UpdatedParsed
		}
		if raw.Description == "" {
			raw.Description = it.Content
		}
		snippet := truncateSnippet(htmlText(raw.Description))
		items = append(items, normalize(i, src, raw, snippet, p.opts, now))
	}
	return items, nil
}

// htmlText возвращает текстовое содержимое HTML-фрагмента со схлопнутыми пробелами.
func htmlText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return stripTags(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
