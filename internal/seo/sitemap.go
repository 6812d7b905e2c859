package seo

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/filmeja/backend/internal/repository"
	"go.uber.org/zap"
)

// Route статический маршрут сайта для sitemap
type Route struct {
	Path       string
	ChangeFreq string
	Priority   string
}

// Entry один узел sitemap
type Entry struct {
	Path       string
	LastMod    time.Time
	ChangeFreq string
	Priority   string
}

// Provider возвращает динамические узлы sitemap из хранилища
type Provider func(ctx context.Context) ([]Entry, error)

// urlSet корневой элемент sitemap по протоколу sitemaps.org
type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlNode `xml:"url"`
}

type urlNode struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Builder собирает sitemap из статических маршрутов и динамических провайдеров.
// Один параметризуемый генератор вместо нескольких дублирующихся вариантов.
type Builder struct {
	baseURL   string
	static    []Route
	providers []Provider
	log       *zap.SugaredLogger
}

// NewBuilder создает новый генератор sitemap
func NewBuilder(baseURL string, static []Route, providers []Provider, log *zap.SugaredLogger) *Builder {
	return &Builder{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		static:    static,
		providers: providers,
		log:       log,
	}
}

// Build формирует XML-документ sitemap
func (b *Builder) Build(ctx context.Context) ([]byte, error) {
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
	}

	for _, route := range b.static {
		set.URLs = append(set.URLs, urlNode{
			Loc:        b.baseURL + route.Path,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
		})
	}

	for _, provider := range b.providers {
		entries, err := provider(ctx)
		if err != nil {
			return nil, fmt.Errorf("sitemap provider failed: %w", err)
		}
		for _, entry := range entries {
			node := urlNode{
				Loc:        b.baseURL + entry.Path,
				ChangeFreq: entry.ChangeFreq,
				Priority:   entry.Priority,
			}
			if !entry.LastMod.IsZero() {
				node.LastMod = entry.LastMod.Format("2006-01-02")
			}
			set.URLs = append(set.URLs, node)
		}
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sitemap: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}

// DefaultStaticRoutes статические маршруты сайта FilmeJá
func DefaultStaticRoutes() []Route {
	return []Route{
		{Path: "/", ChangeFreq: "daily", Priority: "1.0"},
		{Path: "/filmes", ChangeFreq: "daily", Priority: "0.9"},
		{Path: "/series", ChangeFreq: "daily", Priority: "0.9"},
		{Path: "/planos", ChangeFreq: "monthly", Priority: "0.7"},
		{Path: "/blog", ChangeFreq: "weekly", Priority: "0.8"},
	}
}

// BlogProvider возвращает провайдер опубликованных записей блога
func BlogProvider(repo repository.ContentRepository) Provider {
	return func(ctx context.Context) ([]Entry, error) {
		posts, err := repo.PublishedPosts(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, 0, len(posts))
		for _, post := range posts {
			entries = append(entries, Entry{
				Path:       "/blog/" + post.Slug,
				LastMod:    post.UpdatedAt,
				ChangeFreq: "monthly",
				Priority:   "0.6",
			})
		}
		return entries, nil
	}
}

// MovieProvider возвращает провайдер страниц фильмов
func MovieProvider(repo repository.ContentRepository) Provider {
	return func(ctx context.Context) ([]Entry, error) {
		movies, err := repo.Movies(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, 0, len(movies))
		for _, movie := range movies {
			entries = append(entries, Entry{
				Path:       "/filme/" + movie.ID,
				LastMod:    movie.UpdatedAt,
				ChangeFreq: "weekly",
				Priority:   "0.7",
			})
		}
		return entries, nil
	}
}

// SeriesProvider возвращает провайдер страниц сериалов
func SeriesProvider(repo repository.ContentRepository) Provider {
	return func(ctx context.Context) ([]Entry, error) {
		series, err := repo.Series(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, 0, len(series))
		for _, s := range series {
			entries = append(entries, Entry{
				Path:       "/serie/" + s.ID,
				LastMod:    s.UpdatedAt,
				ChangeFreq: "weekly",
				Priority:   "0.7",
			})
		}
		return entries, nil
	}
}

// Robots возвращает содержимое robots.txt со ссылкой на sitemap
func Robots(baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/sitemap.xml\n", baseURL)
}
