package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/ports"
)

const archiveTable = "matched_articles"

const createArchiveTable = `CREATE TABLE IF NOT EXISTS matched_articles (
    source      TEXT        NOT NULL,
    external_id TEXT        NOT NULL,
    title       TEXT        NOT NULL,
    body        TEXT        NOT NULL DEFAULT '',
    link        TEXT        NOT NULL DEFAULT '',
    tags        TEXT[]      NOT NULL DEFAULT '{}',
    keyword     TEXT        NOT NULL,
    accepted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (source, external_id)
)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresArchive appends accepted articles to Postgres. Rows are never read back.
type PostgresArchive struct {
	db execer
}

var _ ports.ArticleArchive = (*PostgresArchive)(nil)

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	if db == nil {
		return &PostgresArchive{}
	}
	return &PostgresArchive{db: db}
}

// OpenPostgres opens and pings a connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Ensure creates the archive table when missing.
func (a *PostgresArchive) Ensure(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	if _, err := a.db.ExecContext(ctx, createArchiveTable); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

// Archive inserts the batch in one statement; ids already archived for the source are skipped.
func (a *PostgresArchive) Archive(ctx context.Context, source string, articles []domain.MatchedArticle) error {
	if a.db == nil || len(articles) == 0 {
		return nil
	}

	query, args, err := buildArchiveInsert(source, articles)
	if err != nil {
		return fmt.Errorf("build archive insert: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("archive %d articles from %s: %w", len(articles), source, err)
	}
	return nil
}

func buildArchiveInsert(source string, articles []domain.MatchedArticle) (string, []any, error) {
	insert := sq.Insert(archiveTable).
		Columns("source", "external_id", "title", "body", "link", "tags", "keyword").
		PlaceholderFormat(sq.Dollar).
		Suffix("ON CONFLICT (source, external_id) DO NOTHING")

	for _, article := range articles {
		tags := article.Tags
		if tags == nil {
			tags = []string{}
		}
		insert = insert.Values(
			source,
			article.ID,
			article.Title,
			article.Body,
			article.Link,
			pq.StringArray(tags),
			string(article.Keyword),
		)
	}
	return insert.ToSql()
}
