package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HashtagRepositoryPG implements domain.HashtagRepository using PostgreSQL.
type HashtagRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewHashtagRepository constructs a new hashtag repository instance.
func NewHashtagRepository(pool *pgxpool.Pool) *HashtagRepositoryPG {
	return &HashtagRepositoryPG{pool: pool}
}

// List returns all known tags ordered alphabetically.
func (r *HashtagRepositoryPG) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT tag FROM hashtags ORDER BY tag ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// SaveAll inserts the given tags, ignoring ones that already exist. All
// inserts run in a single transaction.
func (r *HashtagRepositoryPG) SaveAll(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, tag := range tags {
		if _, err := tx.Exec(ctx, `INSERT INTO hashtags (tag) VALUES ($1) ON CONFLICT (tag) DO NOTHING;`, tag); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
