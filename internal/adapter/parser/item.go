package parser

import (
	"fiscalfeed/internal/domain"
	"strconv"
	"strings"
	"time"
)

const snippetLength = 200

// Options задает общие для всех парсеров параметры нормализации.
type Options struct {
	// Location используется для поля date. По умолчанию UTC.
	Location *time.Location
	// Now возвращает текущее время; подменяется в тестах.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// rawItem - поля одной новости в том виде, в каком они найдены в ленте.
// Пустая строка означает отсутствие поля.
type rawItem struct {
	Title       string
	Link        string
	PubDate     string
	Description string
	// Published заполняется парсерами, которые разбирают дату сами.
	Published *time.Time
}

// normalize превращает rawItem в domain.FeedItem, подставляя значения
// по умолчанию для отсутствующих полей. Никогда не возвращает ошибку.
func normalize(index int, src domain.FeedSource, raw rawItem, snippet string, opts Options, now time.Time) domain.FeedItem {
	title := raw.Title
	if title == "" {
		title = domain.DefaultTitle
	}
	link := raw.Link
	if link == "" {
		link = domain.DefaultLink
	}
	pubDate := raw.PubDate
	if pubDate == "" {
		pubDate = now.UTC().Format(domain.HTTPDateLayout)
	}

	published, dated := now, false
	if raw.Published != nil {
		published, dated = *raw.Published, true
	} else if t, err := parsePubDate(pubDate); err == nil {
		published, dated = t, true
	}

	return domain.FeedItem{
		ID:             "rss-" + strconv.Itoa(index),
		Title:          title,
		Link:           link,
		PubDate:        pubDate,
		Date:           domain.FormatDate(published.In(opts.Location)),
		ContentSnippet: snippet,
		Excerpt:        snippet,
		Source:         src.Label,
		Author:         src.Label,
		Tags:           domain.DefaultTags(),
		Resources:      []string{},
		Published:      published,
		Dated:          dated,
	}
}

// truncateSnippet обрезает текст до 200 символов и добавляет многоточие.
func truncateSnippet(text string) string {
	runes := []rune(text)
	if len(runes) > snippetLength {
		runes = runes[:snippetLength]
	}
	return string(runes) + "..."
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"02 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePubDate разбирает дату публикации в одном из распространенных форматов.
func parsePubDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateError{Value: dateStr}
}

// DateError возвращается, если дату не удалось разобрать ни в одном формате.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return "could not parse date in any known format: " + strconv.Quote(e.Value)
}
