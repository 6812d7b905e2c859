package domain

import "time"

// BlogPost запись блога. Для генерации sitemap используются только
// slug, признак публикации и время обновления.
type BlogPost struct {
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Movie фильм из каталога.
type Movie struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Series сериал из каталога.
type Series struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}
