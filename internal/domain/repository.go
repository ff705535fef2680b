package domain

import "context"

// MovieRepository persists catalog entries.
type MovieRepository interface {
	List(ctx context.Context) ([]Movie, error)
	Get(ctx context.Context, id int64) (*Movie, error)
	Create(ctx context.Context, movie *Movie) (*Movie, error)
	Update(ctx context.Context, movie *Movie) (*Movie, error)
	Delete(ctx context.Context, id int64) error
}

// HashtagRepository persists the distinct tag vocabulary.
type HashtagRepository interface {
	List(ctx context.Context) ([]string, error)
	SaveAll(ctx context.Context, tags []string) error
}
