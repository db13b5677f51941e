package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearstack/opsdesk/internal/domain"
)

// Repo is the console's view of the hosted database. It may be built over
// a nil pool, in which case every operation short-circuits with
// ErrNotConfigured instead of panicking, matching the console's behavior
// when the database credentials are absent.
type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) ready() error {
	if r == nil || r.pool == nil {
		return domain.ErrNotConfigured
	}
	return nil
}
