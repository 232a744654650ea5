package parser

import (
	"context"
	"fiscalfeed/internal/domain"
	"log/slog"
	"regexp"
)

var (
	itemRe        = regexp.MustCompile(`(?s)<item>(.*?)</item>`)
	titleRe       = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	linkRe        = regexp.MustCompile(`(?s)<link>(.*?)</link>`)
	pubDateRe     = regexp.MustCompile(`(?s)<pubDate>(.*?)</pubDate>`)
	descriptionRe = regexp.MustCompile(`(?s)<description>(.*?)</description>`)
	tagRe         = regexp.MustCompile(`(?s)<.*?>`)
)

// RegexParser извлекает новости регулярными выражениями, без разбора XML.
// Работает и на некорректной разметке; очистка описания от тегов
// приблизительная: сущности и хвосты CDATA могут остаться в тексте.
type RegexParser struct {
	log  *slog.Logger
	opts Options
}

func NewRegexParser(log *slog.Logger, opts Options) *RegexParser {
	return &RegexParser{
		log:  log,
		opts: opts.withDefaults(),
	}
}

// Parse реализует метод интерфейса FeedParser.
func (p *RegexParser) Parse(ctx context.Context, body []byte, src domain.FeedSource) ([]domain.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.opts.Now()
	blocks := itemRe.FindAllSubmatch(body, -1)
	items := make([]domain.FeedItem, 0, len(blocks))
	for i, block := range blocks {
		raw := extractRaw(block[1])
		snippet := truncateSnippet(stripTags(raw.Description))
		item := normalize(i, src, raw, snippet, p.opts, now)
		if !item.Dated {
			p.log.Debug("could not parse item pubDate, using current time",
				slog.String("pubDate", item.PubDate),
				slog.String("source", src.Label),
			)
		}
		items = append(items, item)
	}
	return items, nil
}

func extractRaw(block []byte) rawItem {
	return rawItem{
		Title:       firstGroup(titleRe, block),
		Link:        firstGroup(linkRe, block),
		PubDate:     firstGroup(pubDateRe, block),
		Description: firstGroup(descriptionRe, block),
	}
}

func firstGroup(re *regexp.Regexp, block []byte) string {
	m := re.FindSubmatch(block)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// stripTags удаляет все последовательности <...> нежадным поиском.
func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}
