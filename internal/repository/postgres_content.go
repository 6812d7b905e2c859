package repository

import (
	"context"
	"fmt"

	"github.com/filmeja/backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresContentRepository реализация репозитория контента через PostgreSQL
type PostgresContentRepository struct {
	db  *pgxpool.Pool
	log *zap.SugaredLogger
}

// NewPostgresContentRepository создает новый репозиторий контента через PostgreSQL
func NewPostgresContentRepository(db *pgxpool.Pool, log *zap.SugaredLogger) *PostgresContentRepository {
	return &PostgresContentRepository{
		db:  db,
		log: log,
	}
}

// PublishedPosts возвращает опубликованные записи блога
func (r *PostgresContentRepository) PublishedPosts(ctx context.Context) ([]domain.BlogPost, error) {
	query := `
		SELECT slug, published, updated_at
		FROM blog_posts
		WHERE published = true
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query blog posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.BlogPost
	for rows.Next() {
		var post domain.BlogPost
		if err := rows.Scan(&post.Slug, &post.Published, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blog posts: %w", err)
	}

	return posts, nil
}

// Movies возвращает фильмы каталога
func (r *PostgresContentRepository) Movies(ctx context.Context) ([]domain.Movie, error) {
	query := `SELECT id, updated_at FROM movies ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		var movie domain.Movie
		if err := rows.Scan(&movie.ID, &movie.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}

	return movies, nil
}

// Series возвращает сериалы каталога
func (r *PostgresContentRepository) Series(ctx context.Context) ([]domain.Series, error) {
	query := `SELECT id, updated_at FROM series ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var series []domain.Series
	for rows.Next() {
		var s domain.Series
		if err := rows.Scan(&s.ID, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		series = append(series, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series: %w", err)
	}

	return series, nil
}
