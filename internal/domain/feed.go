package domain

import "time"

const (
	DefaultTitle = "Sans titre"
	DefaultLink  = "#"

	FallbackID     = "error-fallback"
	FallbackSource = "Système"
)

// DefaultTags возвращает набор тегов, присваиваемый каждой новости.
func DefaultTags() []string {
	return []string{"Fiscal", "Officiel"}
}

// FeedSource описывает одну внешнюю RSS-ленту и её отображаемое имя.
type FeedSource struct {
	URL   string `json:"url" yaml:"url"`
	Label string `json:"label" yaml:"label"`
}

// FeedItem представляет отдельную новость, нормализованную для API.
// Published и Dated не сериализуются: это ключ сортировки и признак
// того, что pubDate удалось разобрать.
type FeedItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	PubDate        string    `json:"pubDate"`
	Date           string    `json:"date"`
	ContentSnippet string    `json:"contentSnippet"`
	Excerpt        string    `json:"excerpt"`
	Source         string    `json:"source"`
	Author         string    `json:"author"`
	Tags           []string  `json:"tags"`
	Resources      []string  `json:"resources"`
	Published      time.Time `json:"-"`
	Dated          bool      `json:"-"`
}

// FallbackItems возвращает массив из одной синтетической новости,
// который отдается клиенту, если агрегация завершилась неожиданной ошибкой.
func FallbackItems(now time.Time) []FeedItem {
	message := "Les actualités fiscales ne peuvent pas être chargées pour le moment. Veuillez réessayer plus tard."
	return []FeedItem{{
		ID:             FallbackID,
		Title:          "Service temporairement indisponible",
		Link:           DefaultLink,
		PubDate:        now.UTC().Format(HTTPDateLayout),
		Date:           FormatDate(now),
		ContentSnippet: message,
		Excerpt:        message,
		Source:         FallbackSource,
		Author:         FallbackSource,
		Tags:           DefaultTags(),
		Resources:      []string{},
		Published:      now,
		Dated:          true,
	}}
}

// HTTPDateLayout используется для pubDate по умолчанию.
const HTTPDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// FormatDate форматирует дату во французском формате дд/мм/гггг.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
