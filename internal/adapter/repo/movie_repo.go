package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cnvrt/gemini-edit-image/internal/domain"
)

const uniqueViolationCode = "23505"

// MovieRepositoryPG implements domain.MovieRepository using PostgreSQL.
type MovieRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewMovieRepository constructs a new movie repository instance.
func NewMovieRepository(pool *pgxpool.Pool) *MovieRepositoryPG {
	return &MovieRepositoryPG{pool: pool}
}

// List returns all movies ordered by name.
func (r *MovieRepositoryPG) List(ctx context.Context) ([]domain.Movie, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, name, url, rating, release_date, tags
FROM movies
ORDER BY name ASC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		var movie domain.Movie
		if err := rows.Scan(&movie.ID, &movie.Name, &movie.URL, &movie.Rating, &movie.ReleaseDate, &movie.Tags); err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

// Get returns a single movie by ID.
func (r *MovieRepositoryPG) Get(ctx context.Context, id int64) (*domain.Movie, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, name, url, rating, release_date, tags
FROM movies
WHERE id = $1;
`, id)
	var movie domain.Movie
	if err := row.Scan(&movie.ID, &movie.Name, &movie.URL, &movie.Rating, &movie.ReleaseDate, &movie.Tags); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &movie, nil
}

// Create inserts a new movie and returns the stored record.
func (r *MovieRepositoryPG) Create(ctx context.Context, movie *domain.Movie) (*domain.Movie, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO movies (name, url, rating, release_date, tags)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, url, rating, release_date, tags;
`, movie.Name, movie.URL, movie.Rating, movie.ReleaseDate, movie.Tags)
	return scanMovie(row)
}

// Update replaces an existing movie and returns the stored record.
func (r *MovieRepositoryPG) Update(ctx context.Context, movie *domain.Movie) (*domain.Movie, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE movies
SET name = $1, url = $2, rating = $3, release_date = $4, tags = $5
WHERE id = $6
RETURNING id, name, url, rating, release_date, tags;
`, movie.Name, movie.URL, movie.Rating, movie.ReleaseDate, movie.Tags, movie.ID)
	return scanMovie(row)
}

// Delete removes a movie by ID.
func (r *MovieRepositoryPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMovie(row pgx.Row) (*domain.Movie, error) {
	var movie domain.Movie
	if err := row.Scan(&movie.ID, &movie.Name, &movie.URL, &movie.Rating, &movie.ReleaseDate, &movie.Tags); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}
	return &movie, nil
}
