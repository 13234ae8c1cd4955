package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/lwchen/ragbench/internal/core/domain"
)

// DocumentRepository stores the evaluation corpus. Dense search runs against
// the in-memory index, so the embedding column is storage only; lexical
// search runs here through the generated tsvector column.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	doc_id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	original_source TEXT NOT NULL DEFAULT '',
	original_id TEXT NOT NULL DEFAULT '',
	is_gold BOOLEAN NOT NULL DEFAULT FALSE,
	embedding vector,
	content_tsv TSVECTOR GENERATED ALWAYS AS (to_tsvector('english', content)) STORED,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_content_tsv ON documents USING GIN (content_tsv);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT doc_id, content, original_source, original_id, is_gold
FROM documents
WHERE doc_id = ANY($1)
`, ids)
	if err != nil {
		return nil, fmt.Errorf("query documents by ids: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.DocID, &doc.Content, &doc.OriginalSource, &doc.OriginalID, &doc.IsGold); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// TextSearch ranks documents against the OR of the query terms, the lexical
// half of hybrid retrieval. A missing tsvector column or table means the
// corpus was never ingested; that maps to domain.ErrSearchUnavailable so the
// caller can fail the run instead of silently returning nothing.
func (r *DocumentRepository) TextSearch(ctx context.Context, query string, limit int) ([]domain.RetrievalResult, error) {
	tsQuery := buildTSQuery(query)
	if tsQuery == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT doc_id, content, original_source, ts_rank(content_tsv, q) AS score
FROM documents, to_tsquery('english', $1) q
WHERE content_tsv @@ q
ORDER BY score DESC, doc_id
LIMIT $2
`, tsQuery, limit)
	if err != nil {
		if isMissingRelation(err) {
			return nil, domain.WrapError(domain.ErrSearchUnavailable, "text search", err)
		}
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievalResult
	for rows.Next() {
		var res domain.RetrievalResult
		if err := rows.Scan(&res.DocID, &res.Content, &res.OriginalSource, &res.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		res.RetrievalType = domain.RetrievalLexical
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *DocumentRepository) GetAllWithEmbeddings(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT doc_id, content, original_source, original_id, is_gold, embedding
FROM documents
WHERE embedding IS NOT NULL
ORDER BY created_at, doc_id
`)
	if err != nil {
		return nil, fmt.Errorf("query embedded documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var vec pgvector.Vector
		if err := rows.Scan(&doc.DocID, &doc.Content, &doc.OriginalSource, &doc.OriginalID, &doc.IsGold, &vec); err != nil {
			return nil, fmt.Errorf("scan embedded document: %w", err)
		}
		doc.Embedding = vec.Slice()
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) ListMissingEmbeddings(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT doc_id, content, original_source, original_id, is_gold
FROM documents
WHERE embedding IS NULL
ORDER BY created_at, doc_id
`)
	if err != nil {
		return nil, fmt.Errorf("query unembedded documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.DocID, &doc.Content, &doc.OriginalSource, &doc.OriginalID, &doc.IsGold); err != nil {
			return nil, fmt.Errorf("scan unembedded document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) UpdateEmbedding(ctx context.Context, docID string, embedding []float32) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET embedding = $2
WHERE doc_id = $1
`, docID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}
	return nil
}

// BulkInsert loads documents one statement at a time inside a transaction.
// Duplicate doc_ids are skipped, not errors, so re-ingesting the same corpus
// file is harmless.
func (r *DocumentRepository) BulkInsert(ctx context.Context, docs []domain.Document) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted, skipped := 0, 0
	for _, doc := range docs {
		var embedding any
		if doc.Embedding != nil {
			embedding = pgvector.NewVector(doc.Embedding)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO documents (doc_id, content, original_source, original_id, is_gold, embedding)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (doc_id) DO NOTHING
`, doc.DocID, doc.Content, doc.OriginalSource, doc.OriginalID, doc.IsGold, embedding)
		if err != nil {
			return inserted, skipped, fmt.Errorf("insert document %s: %w", doc.DocID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, skipped, fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, skipped, fmt.Errorf("commit insert tx: %w", err)
	}
	return inserted, skipped, nil
}

func (r *DocumentRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents`)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// buildTSQuery turns free text into an OR-joined to_tsquery expression.
// Punctuation is stripped so user input cannot break the tsquery syntax;
// letters and digits of any script stay, so non-English queries still reach
// the index.
func buildTSQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		term := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, f)
		if term != "" {
			terms = append(terms, term)
		}
	}
	return strings.Join(terms, " | ")
}

func isMissingRelation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// undefined_table / undefined_column
		return pgErr.Code == "42P01" || pgErr.Code == "42703"
	}
	return false
}
