// Package storage persists the review audit log.
package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/pr-warden/internal/core"
)

// Store is the write-only audit log of published reviews. Records are never
// read back into a run; the review pipeline itself is stateless.
type Store interface {
	SaveReview(ctx context.Context, record *core.ReviewRecord) error
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a Store backed by PostgreSQL.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) SaveReview(ctx context.Context, record *core.ReviewRecord) error {
	query := `INSERT INTO reviews (repo_full_name, pr_number, head_sha, summary, comment_count, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		record.RepoFullName, record.PRNumber, record.HeadSHA,
		record.Summary, record.CommentCount, record.Outcome, time.Now())
	return err
}
