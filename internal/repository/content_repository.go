package repository

import (
	"context"
	"sync"

	"github.com/filmeja/backend/internal/domain"
	"go.uber.org/zap"
)

// ContentRepository интерфейс доступа к контенту, попадающему в sitemap.
// Все методы только для чтения.
type ContentRepository interface {
	// PublishedPosts возвращает опубликованные записи блога
	PublishedPosts(ctx context.Context) ([]domain.BlogPost, error)

	// Movies возвращает фильмы каталога
	Movies(ctx context.Context) ([]domain.Movie, error)

	// Series возвращает сериалы каталога
	Series(ctx context.Context) ([]domain.Series, error)
}

// InMemoryContentRepository реализация репозитория контента в памяти.
type InMemoryContentRepository struct {
	posts  []domain.BlogPost
	movies []domain.Movie
	series []domain.Series
	mutex  sync.RWMutex
	log    *zap.SugaredLogger
}

// NewInMemoryContentRepository создает новый репозиторий контента в памяти
func NewInMemoryContentRepository(log *zap.SugaredLogger) *InMemoryContentRepository {
	return &InMemoryContentRepository{log: log}
}

// AddPost добавляет запись блога
func (r *InMemoryContentRepository) AddPost(post domain.BlogPost) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.posts = append(r.posts, post)
}

// AddMovie добавляет фильм
func (r *InMemoryContentRepository) AddMovie(movie domain.Movie) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.movies = append(r.movies, movie)
}

// AddSeries добавляет сериал
func (r *InMemoryContentRepository) AddSeries(series domain.Series) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.series = append(r.series, series)
}

// PublishedPosts возвращает опубликованные записи блога
func (r *InMemoryContentRepository) PublishedPosts(ctx context.Context) ([]domain.BlogPost, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var published []domain.BlogPost
	for _, post := range r.posts {
		if post.Published {
			published = append(published, post)
		}
	}

	return published, nil
}

// Movies возвращает фильмы каталога
func (r *InMemoryContentRepository) Movies(ctx context.Context) ([]domain.Movie, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	movies := make([]domain.Movie, len(r.movies))
	copy(movies, r.movies)

	return movies, nil
}

// Series возвращает сериалы каталога
func (r *InMemoryContentRepository) Series(ctx context.Context) ([]domain.Series, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	series := make([]domain.Series, len(r.series))
	copy(series, r.series)

	return series, nil
}
